package crawler

import (
	"html"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

var (
	anchorPattern = regexp.MustCompile(`(?is)<a\b([^>]*)>(.*?)</a>`)
	hrefPattern   = regexp.MustCompile(`(?i)href\s*=\s*"([^"]*)"`)
	classPattern  = regexp.MustCompile(`(?i)class\s*=\s*"([^"]*)"`)

	personPattern = regexp.MustCompile(`/(?:en/)?persons/[\w-]+`)

	h1Pattern = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	h2Pattern = regexp.MustCompile(`(?is)<h2[^>]*>(.*?)</h2>`)

	resultMarkerPattern = regexp.MustCompile(`(?i)class="[^"]*(?:result-container|result-item|rendering_researchoutput)[^"]*"`)
	titleBlockPattern   = regexp.MustCompile(`(?is)class="[^"]*title[^"]*"[^>]*>(.*?)</`)
	dateBlockPattern    = regexp.MustCompile(`(?is)class="[^"]*(?:date|year)[^"]*"[^>]*>(.*?)</`)
	yearPattern         = regexp.MustCompile(`(19|20)\d{2}`)
	authorsBlockPattern = regexp.MustCompile(`(?is)class="[^"]*authors[^"]*"[^>]*>(.*?)</`)
	authorSplitPattern  = regexp.MustCompile(`[,&;]`)

	textblockPattern   = regexp.MustCompile(`(?is)class="[^"]*textblock[^"]*"[^>]*>(.*?)</div>`)
	keywordsHeading    = regexp.MustCompile(`(?is)<h[23][^>]*>[^<]*keywords[^<]*</h[23]>`)
	listPattern        = regexp.MustCompile(`(?is)<ul[^>]*>(.*?)</ul>`)
	listItemPattern    = regexp.MustCompile(`(?is)<li[^>]*>(.*?)</li>`)
	fingerprintPattern = regexp.MustCompile(`(?is)<[a-z][a-z0-9]*[^>]*class="[^"]*fingerprint-tag[^"]*"[^>]*>(.*?)</`)

	tagPattern = regexp.MustCompile(`<[^>]*>`)
)

// anchor is one <a> element pulled out of a page.
type anchor struct {
	href  string
	class string
	text  string
}

func parseAnchors(page string) []anchor {
	matches := anchorPattern.FindAllStringSubmatch(page, -1)
	anchors := make([]anchor, 0, len(matches))
	for _, m := range matches {
		attrs, inner := m[1], m[2]
		var a anchor
		if h := hrefPattern.FindStringSubmatch(attrs); h != nil {
			a.href = strings.TrimSpace(h[1])
		}
		if c := classPattern.FindStringSubmatch(attrs); c != nil {
			a.class = c[1]
		}
		a.text = stripTags(inner)
		anchors = append(anchors, a)
	}
	return anchors
}

// stripTags drops markup from an HTML fragment and collapses whitespace.
func stripTags(fragment string) string {
	text := tagPattern.ReplaceAllString(fragment, " ")
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// extractProfileLinks returns the person profile URLs found on the page,
// restricted to the portal's own host, deduplicated and sorted.
func extractProfileLinks(page string, base *url.URL) []string {
	seen := make(map[string]struct{})
	for _, a := range parseAnchors(page) {
		if a.href == "" || !personPattern.MatchString(a.href) {
			continue
		}
		full := resolveURL(base, a.href)
		if full == "" {
			continue
		}
		parsed, err := url.Parse(full)
		if err != nil || parsed.Host != base.Host {
			continue
		}
		seen[full] = struct{}{}
	}

	links := make([]string, 0, len(seen))
	for link := range seen {
		links = append(links, link)
	}
	sort.Strings(links)
	return links
}

// extractAuthorName pulls the profile's display name from its page header.
func extractAuthorName(page string) string {
	for _, pattern := range []*regexp.Regexp{h1Pattern, h2Pattern} {
		if m := pattern.FindStringSubmatch(page); m != nil {
			if name := stripTags(m[1]); name != "" {
				return name
			}
		}
	}
	return "Unknown Author"
}

// extractPublications reads the publication listing entries from a profile
// page. Each result container yields a title, link, year, and author list;
// containers without a title are skipped. The profile's own author name is
// used when a container lists no authors.
func extractPublications(page string, profileURL *url.URL, authorName string) []Publication {
	markers := resultMarkerPattern.FindAllStringIndex(page, -1)
	if markers == nil {
		return nil
	}

	var pubs []Publication
	for i, marker := range markers {
		end := len(page)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}
		segment := page[marker[0]:end]

		titleBlock := titleBlockPattern.FindStringSubmatch(segment)
		if titleBlock == nil {
			continue
		}
		title := stripTags(titleBlock[1])
		if title == "" {
			continue
		}

		link := profileURL.String()
		if h := hrefPattern.FindStringSubmatch(titleBlock[1]); h != nil {
			if resolved := resolveURL(profileURL, h[1]); resolved != "" {
				link = resolved
			}
		}

		year := "N/A"
		if dateBlock := dateBlockPattern.FindStringSubmatch(segment); dateBlock != nil {
			if m := yearPattern.FindString(stripTags(dateBlock[1])); m != "" {
				year = m
			}
		}

		authors := []string{authorName}
		if authorsBlock := authorsBlockPattern.FindStringSubmatch(segment); authorsBlock != nil {
			if found := splitAuthors(stripTags(authorsBlock[1])); len(found) > 0 {
				authors = found
			}
		}

		pubs = append(pubs, Publication{
			Title:           title,
			Authors:         authors,
			Year:            year,
			PublicationLink: link,
			ProfileLink:     profileURL.String(),
		})
	}
	return pubs
}

func splitAuthors(text string) []string {
	var authors []string
	for _, part := range authorSplitPattern.Split(text, -1) {
		if name := strings.TrimSpace(part); name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}

// extractNextLink returns the pagination link marked with the nextLink
// class, or "" when the listing has no further pages.
func extractNextLink(page string, base *url.URL) string {
	for _, a := range parseAnchors(page) {
		if a.href == "" || !strings.Contains(a.class, "nextLink") {
			continue
		}
		return resolveURL(base, a.href)
	}
	return ""
}

// extractAbstract finds the abstract text block on a publication page.
func extractAbstract(page string) string {
	for _, marker := range []string{"abstractportal", `class="abstract"`, "rendering_researchoutput"} {
		idx := strings.Index(page, marker)
		if idx < 0 {
			continue
		}
		if m := textblockPattern.FindStringSubmatch(page[idx:]); m != nil {
			return stripTags(m[1])
		}
	}
	return ""
}

// extractKeywords gathers the entries under the Keywords heading plus any
// fingerprint tags elsewhere on the page, preserving order and dropping
// duplicates.
func extractKeywords(page string) []string {
	var keywords []string
	seen := make(map[string]struct{})
	add := func(kw string) {
		if kw == "" {
			return
		}
		if _, dup := seen[kw]; dup {
			return
		}
		seen[kw] = struct{}{}
		keywords = append(keywords, kw)
	}

	if loc := keywordsHeading.FindStringIndex(page); loc != nil {
		if ul := listPattern.FindStringSubmatch(page[loc[1]:]); ul != nil {
			for _, li := range listItemPattern.FindAllStringSubmatch(ul[1], -1) {
				add(stripTags(li[1]))
			}
		}
	}

	for _, tag := range fingerprintPattern.FindAllStringSubmatch(page, -1) {
		add(stripTags(tag[1]))
	}
	return keywords
}
