package route

import "github.com/iurnickita/scpclient/internal/auth"

type Action int

const (
	Allow Action = iota
	Redirect
	// Wait: сессия еще восстанавливается, решение откладывается
	Wait
)

func (a Action) String() string {
	switch a {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	case Wait:
		return "wait"
	default:
		return "unknown"
	}
}

type Decision struct {
	Action Action
	// Target is the redirect destination, or the resolved path on Allow.
	Target string
	Route  Route
}

type Guard struct {
	table *Table
}

func NewGuard(table *Table) *Guard {
	return &Guard{table: table}
}

func (g *Guard) Table() *Table {
	return g.table
}

func (g *Guard) Evaluate(status auth.Status, path string) Decision {
	r := g.table.Resolve(path)

	switch status {
	case auth.StatusAuthenticated:
		if r.Access == AuthOnly {
			return Decision{Action: Redirect, Target: g.table.Home(), Route: r}
		}
	case auth.StatusAnonymous:
		if r.Access == Protected {
			return Decision{Action: Redirect, Target: g.table.Login(), Route: r}
		}
	default:
		return Decision{Action: Wait, Route: r}
	}
	return Decision{Action: Allow, Target: r.Path, Route: r}
}
