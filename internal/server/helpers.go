package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/betbot/gokx/internal/executor"
	"github.com/betbot/gokx/okx/client"
)

func writeOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"code": "0", "msg": "Success", "data": data})
}

func writeFail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"code": "-1", "msg": msg, "data": []any{}})
}

// queryAccounts parses the comma-separated account_names query param.
// Empty means all accounts.
func (s *Server) queryAccounts(c *gin.Context) []string {
	raw := strings.TrimSpace(c.Query("account_names"))
	if raw == "" {
		return s.exec.Names()
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// namesOrAll falls back to every registered account.
func (s *Server) namesOrAll(names []string) []string {
	if len(names) == 0 {
		return s.exec.Names()
	}
	return names
}

// byAccount re-keys positional outcomes into the account-name map the
// dashboard consumes.
func byAccount(outcomes []executor.Outcome) map[string]*client.Response {
	out := make(map[string]*client.Response, len(outcomes))
	for _, o := range outcomes {
		out[o.Account] = o.Result
	}
	return out
}
