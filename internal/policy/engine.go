package policy

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/rego"
)

// Query is the rule every admission module must define.
const Query = "data.payrouter.admission.decide"

type DecisionStatus string

const (
	Allow   DecisionStatus = "ALLOW"
	Blocked DecisionStatus = "BLOCKED"
)

// Input describes one payment attempt before it reaches a connector.
type Input struct {
	MerchantID    string `json:"merchant_id"`
	Connector     string `json:"connector"`
	Flow          string `json:"flow"`
	Amount        int64  `json:"amount,omitempty"`
	Currency      string `json:"currency,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

type Decision struct {
	Status        DecisionStatus `json:"status"`
	Reasons       []string       `json:"reasons,omitempty"`
	PolicyVersion string         `json:"policy_version,omitempty"`
}

func (d Decision) Allowed() bool { return d.Status == Allow }

// Engine evaluates a compiled admission module. The zero Engine allows
// everything.
type Engine struct {
	query   *rego.PreparedEvalQuery
	version string
}

// Compile prepares module for evaluation. An empty module yields an
// allow-all engine.
func Compile(ctx context.Context, module string) (*Engine, error) {
	if module == "" {
		return &Engine{}, nil
	}
	q, err := rego.New(
		rego.Query(Query),
		rego.Module("admission.rego", module),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile admission policy: %w", err)
	}
	sum := sha256.Sum256([]byte(module))
	return &Engine{query: &q, version: hex.EncodeToString(sum[:6])}, nil
}

// Load compiles the module at path; an empty path allows everything.
func Load(ctx context.Context, path string) (*Engine, error) {
	if path == "" {
		return &Engine{}, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy %s: %w", path, err)
	}
	return Compile(ctx, string(b))
}

func (e *Engine) Version() string { return e.version }

// Evaluate never errors: an evaluation failure or an undefined result blocks
// the attempt with reason policy_error.
func (e *Engine) Evaluate(ctx context.Context, in Input) Decision {
	if e == nil || e.query == nil {
		return Decision{Status: Allow}
	}
	blocked := Decision{Status: Blocked, Reasons: []string{"policy_error"}, PolicyVersion: e.version}
	rs, err := e.query.Eval(ctx, rego.EvalInput(map[string]any{
		"merchant_id":    in.MerchantID,
		"connector":      in.Connector,
		"flow":           in.Flow,
		"amount":         in.Amount,
		"currency":       in.Currency,
		"payment_method": in.PaymentMethod,
	}))
	if err != nil || len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return blocked
	}
	dec := Decision{PolicyVersion: e.version}
	switch out := rs[0].Expressions[0].Value.(type) {
	case bool:
		dec.Status = Blocked
		if out {
			dec.Status = Allow
		}
	case map[string]any:
		dec.Status = Blocked
		if s, _ := out["status"].(string); s == string(Allow) {
			dec.Status = Allow
		}
		if rs, ok := out["reasons"].([]any); ok {
			for _, r := range rs {
				if s, ok := r.(string); ok {
					dec.Reasons = append(dec.Reasons, s)
				}
			}
		}
	default:
		return blocked
	}
	return dec
}
