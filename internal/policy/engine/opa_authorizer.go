package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

const adminQuery = "data.jagx.admin.allow"

// Default Rego policy: admin commands are open to every sender.
const defaultRegoPolicy = `package jagx.admin

default allow := true
`

// OPAAuthorizer evaluates admin command requests against a Rego policy.
type OPAAuthorizer struct {
	query rego.PreparedEvalQuery
}

// NewOPAAuthorizer compiles policy and prepares the allow query. An empty policy uses the default.
func NewOPAAuthorizer(ctx context.Context, policy string) (*OPAAuthorizer, error) {
	if policy == "" {
		policy = defaultRegoPolicy
	}
	compiler, err := ast.CompileModules(map[string]string{"admin.rego": policy})
	if err != nil {
		return nil, fmt.Errorf("compile admin policy: %w", err)
	}
	q, err := rego.New(
		rego.Query(adminQuery),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare admin policy: %w", err)
	}
	return &OPAAuthorizer{query: q}, nil
}

// NewOPAAuthorizerFromFile reads a Rego policy from path; an empty path uses the default policy.
func NewOPAAuthorizerFromFile(ctx context.Context, path string) (*OPAAuthorizer, error) {
	if path == "" {
		return NewOPAAuthorizer(ctx, "")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read admin policy: %w", err)
	}
	return NewOPAAuthorizer(ctx, string(raw))
}

// Authorize evaluates data.jagx.admin.allow. An undefined or non-boolean result denies.
func (a *OPAAuthorizer) Authorize(ctx context.Context, req AdminRequest) (bool, error) {
	input := map[string]interface{}{
		"sender":  req.Sender,
		"command": req.Command,
		"target":  req.Target,
	}
	rs, err := a.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("eval admin policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	return ok && allowed, nil
}

// HealthCheck verifies that the in-process OPA engine can compile and evaluate the default policy.
func (a *OPAAuthorizer) HealthCheck(ctx context.Context) error {
	probe, err := NewOPAAuthorizer(ctx, "")
	if err != nil {
		return err
	}
	allowed, err := probe.Authorize(ctx, AdminRequest{Sender: "healthcheck", Command: "kick"})
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("default admin policy denied probe")
	}
	return nil
}
