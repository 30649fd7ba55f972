// Package executor fans one logical operation out across accounts.
//
// Fan-out is deliberately sequential with a mandatory gap between accounts:
// the exchange rate-limits per credential but applies IP-level heuristics to
// rapid sequential calls from one process. A parallel implementation would
// have to keep the same minimum spacing through the shared IntervalGate.
package executor

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/betbot/gokx/internal/accounts"
	"github.com/betbot/gokx/okx/client"
	"github.com/betbot/gokx/pkg/ratelimit"
)

var execLog = logrus.WithField("component", "executor")

// Outcome is the per-account result of a fan-out. Exactly one outcome is
// produced for every requested account name, in request order.
type Outcome struct {
	Account   string           `json:"account"`
	Operation string           `json:"operation"`
	Result    *client.Response `json:"result"`
}

// Op is one operation of the closed fan-out set. Ops are built through the
// typed constructors below (plus the trading package's); there is no
// dispatch by name.
type Op struct {
	Name string
	Run  func(c *client.Client) *client.Response
}

// NewOp wraps a typed operation for fan-out.
func NewOp(name string, run func(c *client.Client) *client.Response) Op {
	return Op{Name: name, Run: run}
}

// Executor runs ops across the registry with enforced inter-account spacing.
type Executor struct {
	registry *accounts.Registry
	gate     *ratelimit.IntervalGate
}

// New 创建执行器。interval 即账户间最小间隔。
func New(registry *accounts.Registry, gate *ratelimit.IntervalGate) *Executor {
	return &Executor{registry: registry, gate: gate}
}

// Execute runs op on each named account in order. Failures — unknown
// account, panic inside the op — are contained per account and never abort
// the remaining accounts. len(result) == len(names) always.
func (e *Executor) Execute(ctx context.Context, names []string, op Op) []Outcome {
	outcomes := make([]Outcome, 0, len(names))
	for _, name := range names {
		// The gate passes immediately on the first-ever call and spaces
		// every later one, including across overlapping batches.
		if err := e.gate.Wait(ctx); err != nil {
			outcomes = append(outcomes, Outcome{
				Account:   name,
				Operation: op.Name,
				Result:    client.Failure(fmt.Sprintf("Error executing %s: %v", op.Name, err)),
			})
			continue
		}
		outcomes = append(outcomes, e.executeOne(name, op))
	}
	return outcomes
}

// ExecuteAll runs op on every registered account.
func (e *Executor) ExecuteAll(ctx context.Context, op Op) []Outcome {
	return e.Execute(ctx, e.registry.ListNames(), op)
}

// Names returns the registry's account names.
func (e *Executor) Names() []string {
	return e.registry.ListNames()
}

// Lookup exposes single-account resolution for non-fanned calls.
func (e *Executor) Lookup(name string) *client.Client {
	return e.registry.Lookup(name)
}

func (e *Executor) executeOne(name string, op Op) (out Outcome) {
	out = Outcome{Account: name, Operation: op.Name}

	acct := e.registry.Lookup(name)
	if acct == nil {
		out.Result = client.Failure(fmt.Sprintf("Account %s not found", name))
		return out
	}

	defer func() {
		if r := recover(); r != nil {
			execLog.Errorf("operation panic: account=%s op=%s panic=%v", name, op.Name, r)
			out.Result = client.Failure(fmt.Sprintf("Error executing %s: %v", op.Name, r))
		}
	}()

	out.Result = op.Run(acct)
	if out.Result == nil {
		out.Result = client.Failure(fmt.Sprintf("Error executing %s: empty result", op.Name))
	}
	return out
}

// ---- client-level operations ----

func GetBalance(ccy string) Op {
	return NewOp("get_balance", func(c *client.Client) *client.Response {
		return c.GetBalance(ccy)
	})
}

func GetPositions(instType, instID string) Op {
	return NewOp("get_positions", func(c *client.Client) *client.Response {
		return c.GetPositions(instType, instID)
	})
}

func GetAccountConfig() Op {
	return NewOp("get_account_config", func(c *client.Client) *client.Response {
		return c.GetAccountConfig()
	})
}

func SetLeverage(instID string, lever int, mgnMode, posSide string) Op {
	return NewOp("set_leverage", func(c *client.Client) *client.Response {
		return c.SetLeverage(instID, lever, mgnMode, posSide)
	})
}

func PlaceOrder(req client.OrderRequest) Op {
	return NewOp("place_order", func(c *client.Client) *client.Response {
		return c.PlaceOrder(req)
	})
}

func PlaceAlgoOrder(req client.AlgoOrderRequest) Op {
	return NewOp("place_algo_order", func(c *client.Client) *client.Response {
		return c.PlaceAlgoOrder(req)
	})
}

func CancelAllOrders(instType, instID string) Op {
	return NewOp("cancel_all_orders", func(c *client.Client) *client.Response {
		return client.Wrap(c.CancelAllOrders(instType, instID))
	})
}

func GetPendingOrders(instType, instID string) Op {
	return NewOp("get_pending_orders", func(c *client.Client) *client.Response {
		return c.GetPendingOrders(instType, instID)
	})
}

func GetOrderHistory(q client.HistoryQuery) Op {
	return NewOp("get_order_history", func(c *client.Client) *client.Response {
		return c.GetOrderHistory(q)
	})
}

func GetFillsHistory(q client.HistoryQuery) Op {
	return NewOp("get_fills_history", func(c *client.Client) *client.Response {
		return c.GetFillsHistory(q)
	})
}

func GetBills(q client.HistoryQuery) Op {
	return NewOp("get_bills", func(c *client.Client) *client.Response {
		return c.GetBills(q)
	})
}
