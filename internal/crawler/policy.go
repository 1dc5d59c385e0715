package crawler

import (
	"strconv"
	"strings"
	"time"
)

// Policy is a parsed robots-style rule set. The zero value (and a nil
// *Policy) permits everything, so a missing or malformed policy file never
// blocks a crawl.
type Policy struct {
	rules      []policyRule
	crawlDelay time.Duration
}

type policyRule struct {
	allow   bool
	pattern string
}

// ParsePolicy reads line-oriented robots directives. Recognized fields are
// User-agent, Disallow, Allow, and Crawl-delay (case-insensitive); lines
// starting with # are comments and unknown fields are ignored. Directives
// apply only inside a block whose User-agent is "*" or a substring of agent.
func ParsePolicy(text, agent string) *Policy {
	p := &Policy{}
	agentLower := strings.ToLower(agent)
	inBlock := false
	prevWasAgent := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			prevWasAgent = false
			continue
		}
		field, value, ok := strings.Cut(line, ":")
		if !ok {
			prevWasAgent = false
			continue
		}
		field = strings.ToLower(strings.TrimSpace(field))
		value = strings.TrimSpace(value)
		switch field {
		case "user-agent":
			match := value == "*" ||
				(value != "" && strings.Contains(agentLower, strings.ToLower(value)))
			if prevWasAgent {
				inBlock = inBlock || match
			} else {
				inBlock = match
			}
			prevWasAgent = true
			continue
		case "disallow":
			if inBlock && value != "" {
				p.rules = append(p.rules, policyRule{allow: false, pattern: value})
			}
		case "allow":
			if inBlock && value != "" {
				p.rules = append(p.rules, policyRule{allow: true, pattern: value})
			}
		case "crawl-delay":
			if inBlock {
				if secs, err := strconv.ParseFloat(value, 64); err == nil && secs > 0 {
					p.crawlDelay = time.Duration(secs * float64(time.Second))
				}
			}
		}
		prevWasAgent = false
	}
	return p
}

// Allowed reports whether the address may be fetched. An address is permitted
// unless it matches a Disallow pattern and no Allow pattern of at least the
// same specificity (pattern length) also matches. No matching Disallow means
// permitted.
func (p *Policy) Allowed(addr string) bool {
	if p == nil {
		return true
	}
	pth := addressPath(addr)
	bestAllow := -1
	bestDisallow := -1
	for _, r := range p.rules {
		if !matchPattern(r.pattern, pth) {
			continue
		}
		if r.allow {
			if len(r.pattern) > bestAllow {
				bestAllow = len(r.pattern)
			}
		} else {
			if len(r.pattern) > bestDisallow {
				bestDisallow = len(r.pattern)
			}
		}
	}
	if bestDisallow < 0 {
		return true
	}
	return bestAllow >= bestDisallow
}

// DelayFloor returns the larger of the configured delay and any crawl-delay
// the policy declared. A policy can slow a crawl down, never speed it up.
func (p *Policy) DelayFloor(configured time.Duration) time.Duration {
	if p == nil || p.crawlDelay <= configured {
		return configured
	}
	return p.crawlDelay
}

// matchPattern does substring matching with * wildcards: the pattern's
// literal segments must appear in order anywhere in the path.
func matchPattern(pattern, pth string) bool {
	if pattern == "" {
		return false
	}
	if !strings.ContainsRune(pattern, '*') {
		return strings.Contains(pth, pattern)
	}
	rest := pth
	for _, part := range strings.Split(pattern, "*") {
		if part == "" {
			continue
		}
		i := strings.Index(rest, part)
		if i < 0 {
			return false
		}
		rest = rest[i+len(part):]
	}
	return true
}
