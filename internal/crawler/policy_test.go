package crawler

import (
	"testing"
	"time"
)

const samplePolicy = `# site crawl policy
User-agent: *
Disallow: /private
Crawl-delay: 2

User-agent: sitesearch
Disallow: /internal
Allow: /internal/docs
`

// TestParsePolicyWildcardBlock verifies that directives under the * block
// apply to every agent.
func TestParsePolicyWildcardBlock(t *testing.T) {
	p := ParsePolicy(samplePolicy, "otherbot")
	if p.Allowed("example.site/private/data") {
		t.Error("expected /private to be disallowed for otherbot")
	}
	if !p.Allowed("example.site/public/page.html") {
		t.Error("expected /public to be allowed for otherbot")
	}
	// The sitesearch block does not apply to otherbot.
	if !p.Allowed("example.site/internal/secrets") {
		t.Error("expected /internal to be allowed for otherbot")
	}
}

// TestParsePolicyAgentMatch verifies substring matching of the User-agent
// value against the configured agent name.
func TestParsePolicyAgentMatch(t *testing.T) {
	p := ParsePolicy(samplePolicy, "sitesearch/1.0")
	if p.Allowed("example.site/internal/secrets") {
		t.Error("expected /internal to be disallowed for sitesearch")
	}
}

// TestAllowOverridesDisallow verifies that a more specific Allow wins over a
// shorter Disallow on the same path.
func TestAllowOverridesDisallow(t *testing.T) {
	p := ParsePolicy(samplePolicy, "sitesearch/1.0")
	if !p.Allowed("example.site/internal/docs/readme.txt") {
		t.Error("expected /internal/docs to be allowed by the override")
	}
}

// TestPolicyWildcardPattern verifies * patterns match literal segments in
// order anywhere in the path.
func TestPolicyWildcardPattern(t *testing.T) {
	p := ParsePolicy("User-agent: *\nDisallow: /tmp/*.bak\n", "any")
	if p.Allowed("example.site/tmp/old.bak") {
		t.Error("expected /tmp/old.bak to match /tmp/*.bak")
	}
	if !p.Allowed("example.site/tmp/current.txt") {
		t.Error("expected /tmp/current.txt not to match /tmp/*.bak")
	}
}

// TestNilPolicyPermitsEverything covers the missing-policy-file path.
func TestNilPolicyPermitsEverything(t *testing.T) {
	var p *Policy
	if !p.Allowed("example.site/anything") {
		t.Error("nil policy must permit everything")
	}
	if got := p.DelayFloor(50 * time.Millisecond); got != 50*time.Millisecond {
		t.Errorf("DelayFloor on nil policy = %v, want configured value", got)
	}
}

// TestCrawlDelayFloor verifies the declared crawl-delay only ever raises the
// effective delay.
func TestCrawlDelayFloor(t *testing.T) {
	p := ParsePolicy(samplePolicy, "otherbot")
	if got := p.DelayFloor(100 * time.Millisecond); got != 2*time.Second {
		t.Errorf("DelayFloor = %v, want 2s from the policy", got)
	}
	if got := p.DelayFloor(5 * time.Second); got != 5*time.Second {
		t.Errorf("DelayFloor = %v, want the larger configured 5s", got)
	}
}

// TestParsePolicyIgnoresJunk verifies comments, blank lines, and unknown
// fields do not disturb parsing.
func TestParsePolicyIgnoresJunk(t *testing.T) {
	text := "# nothing\n\nSitemap: /map\nUser-agent: *\nNonsense line\nDisallow: /x\n"
	p := ParsePolicy(text, "any")
	if p.Allowed("example.site/x/page") {
		t.Error("expected /x to be disallowed")
	}
}

// TestParsePolicyConsecutiveAgents verifies that stacked User-agent lines
// open one shared block.
func TestParsePolicyConsecutiveAgents(t *testing.T) {
	text := "User-agent: alphabot\nUser-agent: betabot\nDisallow: /shared\n"
	for _, agent := range []string{"alphabot", "betabot"} {
		p := ParsePolicy(text, agent)
		if p.Allowed("example.site/shared/page") {
			t.Errorf("expected /shared to be disallowed for %s", agent)
		}
	}
	p := ParsePolicy(text, "gammabot")
	if !p.Allowed("example.site/shared/page") {
		t.Error("expected /shared to be allowed for gammabot")
	}
}

// TestEmptyDisallowIgnored verifies the conventional "Disallow:" with no
// value does not block anything.
func TestEmptyDisallowIgnored(t *testing.T) {
	p := ParsePolicy("User-agent: *\nDisallow:\n", "any")
	if !p.Allowed("example.site/any/path") {
		t.Error("empty Disallow must not block")
	}
}
