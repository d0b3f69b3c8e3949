package contact

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"pentamaths/internal/config"
	"pentamaths/internal/logger"
	"pentamaths/pkg/cel"
	"pentamaths/pkg/metrics"
)

// emailPattern is local@domain.tld with no whitespace and a single '@'.
// Whitespace covers the Unicode space separators as well as ASCII.
var emailPattern = regexp.MustCompile(`^[^\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}@]+@[^\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}@]+\.[^\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}@]+$`)

// Classification is the filter's verdict. Spam is answered as success;
// Invalid is reported back to the client with Problem.
type Classification struct {
	Spam    bool
	Reason  string
	Invalid bool
	Problem string
}

func (c Classification) Clean() bool {
	return !c.Spam && !c.Invalid
}

type Filter struct {
	validLevels map[string]bool
	trapLevels  map[string]bool
	disposable  map[string]bool
	rules       []*cel.Program
	logger      logger.Logger
}

func NewFilter(cfg config.ContactConfig, log logger.Logger) (*Filter, error) {
	f := &Filter{
		validLevels: toSet(cfg.Levels, false),
		trapLevels:  toSet(cfg.TrapLevels, false),
		disposable:  toSet(cfg.DisposableDomains, true),
		logger:      log,
	}

	if len(cfg.Rules) == 0 {
		return f, nil
	}

	evaluator, err := cel.NewEvaluator()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL evaluator: %w", err)
	}
	for _, rule := range cfg.Rules {
		prg, err := evaluator.Compile(rule.Name, rule.Expression)
		if err != nil {
			return nil, err
		}
		f.rules = append(f.rules, prg)
	}

	return f, nil
}

func toSet(values []string, lower bool) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if lower {
			v = strings.ToLower(v)
		}
		set[v] = true
	}
	return set
}

// Classify runs the checks in order and stops at the first hit.
func (f *Filter) Classify(s Submission) Classification {
	for _, field := range trapFields {
		if s.BotTraps[field] != "" {
			return Classification{Spam: true, Reason: ReasonHoneypot}
		}
	}

	if s.SubjectLevel != "" && !f.validLevels[s.SubjectLevel] {
		return Classification{Spam: true, Reason: ReasonInvalidLevel}
	}

	if name, hit := f.matchRule(s); hit {
		return Classification{Spam: true, Reason: ReasonRulePrefix + name}
	}

	if !emailPattern.MatchString(s.Email) || f.disposable[emailDomain(s.Email)] {
		return Classification{Invalid: true, Reason: ReasonInvalidEmail, Problem: ProblemInvalidEmail}
	}

	if s.FullName == "" || s.Email == "" || s.Message == "" {
		return Classification{Invalid: true, Reason: ReasonMissingFields, Problem: ProblemMissingFields}
	}

	return Classification{}
}

// IsTrapLevel reports whether level is one of the decoy options.
func (f *Filter) IsTrapLevel(level string) bool {
	return f.trapLevels[level]
}

func (f *Filter) matchRule(s Submission) (string, bool) {
	if len(f.rules) == 0 {
		return "", false
	}

	fields := cel.Fields{
		FullName:     s.FullName,
		Email:        s.Email,
		EmailDomain:  emailDomain(s.Email),
		SubjectLevel: s.SubjectLevel,
		Message:      s.Message,
	}

	for _, rule := range f.rules {
		hit, err := rule.Evaluate(context.Background(), fields)
		if err != nil {
			metrics.IncRuleEvaluation(rule.Name, "error")
			f.logger.Errorw("Rule evaluation error, skipping rule",
				"rule_name", rule.Name,
				"error", err,
			)
			continue
		}
		if hit {
			metrics.IncRuleEvaluation(rule.Name, "matched")
			return rule.Name, true
		}
		metrics.IncRuleEvaluation(rule.Name, "passed")
	}
	return "", false
}

// emailDomain is the lower-cased text after the first '@'.
func emailDomain(email string) string {
	_, domain, found := strings.Cut(email, "@")
	if !found {
		return ""
	}
	return strings.ToLower(domain)
}
