package crawler

import (
	"context"
	"net/url"
	"strings"
)

// robotsAllowed fetches the portal's robots.txt and checks the seed path
// against the User-agent: * rules. A missing or unreadable robots.txt is
// treated as permission to crawl.
func (c *Crawler) robotsAllowed(ctx context.Context, seed *url.URL) bool {
	robotsURL := seed.Scheme + "://" + seed.Host + "/robots.txt"
	c.logf("Checking %s", robotsURL)

	body, err := c.fetch(ctx, robotsURL)
	if err != nil {
		c.logf("robots.txt unavailable, assuming allowed: %v", err)
		return true
	}

	if !pathAllowed(parseRobots(body), seed.Path) {
		c.logf("Crawling %s is disallowed by robots.txt", seed.Path)
		return false
	}
	return true
}

// parseRobots extracts the Disallow prefixes that apply to all crawlers.
// Only User-agent and Disallow directives are honored; consecutive
// User-agent lines form one group.
func parseRobots(content string) []string {
	var rules []string
	var applies, lastWasAgent bool

	for _, line := range strings.Split(content, "\n") {
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			if lastWasAgent {
				applies = applies || value == "*"
			} else {
				applies = value == "*"
			}
			lastWasAgent = true
		case "disallow":
			if applies && value != "" {
				rules = append(rules, value)
			}
			lastWasAgent = false
		default:
			lastWasAgent = false
		}
	}
	return rules
}

// pathAllowed reports whether the path escapes every Disallow prefix.
func pathAllowed(rules []string, path string) bool {
	if path == "" {
		path = "/"
	}
	for _, rule := range rules {
		if strings.HasPrefix(path, rule) {
			return false
		}
	}
	return true
}
