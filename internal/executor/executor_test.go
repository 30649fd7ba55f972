package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/betbot/gokx/internal/accounts"
	"github.com/betbot/gokx/okx/client"
	"github.com/betbot/gokx/pkg/ratelimit"
)

func newTestExecutor(t *testing.T, interval time.Duration, names ...string) *Executor {
	t.Helper()
	content := "accounts:\n"
	for _, n := range names {
		content += "  - name: " + n + "\n    api_key: k\n    secret_key: s\n    passphrase: p\n"
	}
	path := filepath.Join(t.TempDir(), "accounts.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	reg, err := accounts.Load(accounts.LoadOptions{
		ClientOptions: client.Options{BaseURL: "https://example.invalid"},
		AccountsFile:  path,
	})
	if err != nil {
		t.Fatal(err)
	}
	return New(reg, ratelimit.NewIntervalGate(interval))
}

func TestExecutePositionalOutcomes(t *testing.T) {
	e := newTestExecutor(t, 0, "a", "b")

	op := NewOp("echo_name", func(c *client.Client) *client.Response {
		return client.Wrap(c.Name())
	})

	// 未知账户夹在中间，结果位置必须一一对应
	names := []string{"a", "ghost", "b"}
	outcomes := e.Execute(context.Background(), names, op)

	if len(outcomes) != len(names) {
		t.Fatalf("outcomes got=%d want=%d", len(outcomes), len(names))
	}
	for i, name := range names {
		if outcomes[i].Account != name {
			t.Fatalf("outcome %d account got=%s want=%s", i, outcomes[i].Account, name)
		}
		if outcomes[i].Operation != "echo_name" {
			t.Fatalf("outcome %d operation got=%s", i, outcomes[i].Operation)
		}
	}

	if !outcomes[0].Result.IsOK() || !outcomes[2].Result.IsOK() {
		t.Fatal("known accounts must succeed")
	}
	ghost := outcomes[1].Result
	if ghost.IsOK() || ghost.Msg != "Account ghost not found" {
		t.Fatalf("unknown account envelope got=%+v", ghost)
	}
}

func TestExecutePanicContained(t *testing.T) {
	e := newTestExecutor(t, 0, "a", "b")

	calls := 0
	op := NewOp("boom", func(c *client.Client) *client.Response {
		calls++
		if c.Name() == "a" {
			panic("kaput")
		}
		return client.Wrap("ok")
	})

	outcomes := e.Execute(context.Background(), []string{"a", "b"}, op)
	if len(outcomes) != 2 {
		t.Fatalf("outcomes got=%d want=2", len(outcomes))
	}
	if outcomes[0].Result.IsOK() {
		t.Fatal("panicking account must yield failure")
	}
	if outcomes[0].Result.Msg != "Error executing boom: kaput" {
		t.Fatalf("panic envelope msg got=%q", outcomes[0].Result.Msg)
	}
	// 后续账户照常执行
	if calls != 2 || !outcomes[1].Result.IsOK() {
		t.Fatal("panic must not abort remaining accounts")
	}
}

func TestExecuteNilResultNormalized(t *testing.T) {
	e := newTestExecutor(t, 0, "a")
	op := NewOp("empty", func(c *client.Client) *client.Response { return nil })

	outcomes := e.Execute(context.Background(), []string{"a"}, op)
	if outcomes[0].Result == nil || outcomes[0].Result.IsOK() {
		t.Fatalf("nil op result must become failure envelope, got %+v", outcomes[0].Result)
	}
}

func TestExecuteEnforcesSpacing(t *testing.T) {
	const interval = 40 * time.Millisecond
	e := newTestExecutor(t, interval, "a", "b", "c")

	op := NewOp("noop", func(c *client.Client) *client.Response {
		return client.Wrap("ok")
	})

	start := time.Now()
	outcomes := e.Execute(context.Background(), []string{"a", "b", "c"}, op)
	elapsed := time.Since(start)

	if len(outcomes) != 3 {
		t.Fatalf("outcomes got=%d", len(outcomes))
	}
	// 第一个立即放行，其后每个至少隔一个间隔
	if min := 2 * interval; elapsed < min {
		t.Fatalf("fan-out finished in %v, want >= %v", elapsed, min)
	}
}

func TestExecuteContextCancelled(t *testing.T) {
	e := newTestExecutor(t, 500*time.Millisecond, "a", "b")

	op := NewOp("noop", func(c *client.Client) *client.Response {
		return client.Wrap("ok")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := e.Execute(ctx, []string{"a", "b"}, op)
	if len(outcomes) != 2 {
		t.Fatalf("outcomes got=%d want=2", len(outcomes))
	}
	// 第一个在取消前已放行，第二个等待间隔时被取消
	if outcomes[1].Result.IsOK() {
		t.Fatal("cancelled wait must yield failure envelope")
	}
}

func TestExecuteAll(t *testing.T) {
	e := newTestExecutor(t, 0, "a", "b")
	op := NewOp("noop", func(c *client.Client) *client.Response {
		return client.Wrap("ok")
	})
	outcomes := e.ExecuteAll(context.Background(), op)
	if len(outcomes) != 2 {
		t.Fatalf("outcomes got=%d want=2", len(outcomes))
	}
	if names := e.Names(); len(names) != 2 {
		t.Fatalf("names got=%v", names)
	}
}
