package extract

import (
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/publicsuffix"
)

var (
	urlRe     = regexp.MustCompile(`(?i)(?:\bhttps?://|\bwww\.)[^\s<>"'\x60{}|\\^]+`)
	emailRe   = regexp.MustCompile(`[A-Za-z0-9._%+-]+@([A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)+)`)
	hashtagRe = regexp.MustCompile(`(?:^|[^\p{L}\p{N}_&/#])(#[\p{L}\p{N}_]*\p{L}[\p{L}\p{N}_]*)`)
	chapterRe = regexp.MustCompile(`(?m)^[ \t]*(?:[-*•▶►][ \t]*)?[(\[]?((?:\d{1,2}:)?\d{1,2}:\d{2})[)\]]?[ \t]*(?:[-–—:|.][ \t]*)?(\S[^\n]*?)[ \t]*$`)
	repoRe    = regexp.MustCompile(`(?i)\b(?:https?://)?(?:www\.)?(github\.com|gitlab\.com|bitbucket\.org)/([A-Za-z0-9][A-Za-z0-9_.-]*)/([A-Za-z0-9_.-]+)`)
	fenceRe   = regexp.MustCompile(`(?s)\x60{3}[ \t]*([\w+#.-]*)[^\n]*\n(.*?)\n?[ \t]*\x60{3}`)
	inlineRe  = regexp.MustCompile(`\x60([^\x60\n]+)\x60`)
	commandRe = regexp.MustCompile(`(?m)(?:^|[\s\x60$>(])((?:sudo\s+)?(npm\s+(?:install|i)|pip3?\s+install|pipx\s+install|yarn\s+add|pnpm\s+add|go\s+(?:get|install)|cargo\s+(?:add|install)|gem\s+install|composer\s+require|brew\s+install|docker\s+(?:pull|run)|git\s+clone|kubectl\s+apply|helm\s+install)((?:\s+--?[\w-]+(?:=[^\s\x60]+)?)*)\s+([^\s\x60"'<>]+)((?:\s+--?[\w-]+(?:=[^\s\x60]+)?)*))`)
)

// ExtractURLs returns http(s) and bare www. URLs in first-seen order,
// trailing punctuation removed, exact duplicates dropped. Candidates without a
// host under a known public suffix are discarded; localhost and IPs pass.
func ExtractURLs(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range urlRe.FindAllString(text, -1) {
		u := trimURL(m)
		if u == "" || seen[u] || !validURL(u) {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// trimURL strips trailing punctuation that cannot end a URL, keeping
// balanced closing parentheses (wiki-style links).
func trimURL(u string) string {
	for u != "" {
		r, sz := utf8.DecodeLastRuneInString(u)
		switch {
		case r == ')':
			if strings.Count(u, "(") >= strings.Count(u, ")") {
				return u
			}
		case r == '/' || r == '_' || r == '-' || r == '#' || r == '=' || r == '&' || r == '%' || r == '~':
			return u
		case unicode.IsPunct(r):
		default:
			return u
		}
		u = u[:len(u)-sz]
	}
	return u
}

func validURL(raw string) bool {
	target := raw
	if !strings.Contains(raw, "://") {
		target = "http://" + raw
	}
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return false
	}
	return validHost(u.Hostname())
}

func validHost(h string) bool {
	h = strings.TrimSuffix(strings.ToLower(h), ".")
	if h == "" {
		return false
	}
	if h == "localhost" || net.ParseIP(h) != nil {
		return true
	}
	suffix, icann := publicsuffix.PublicSuffix(h)
	if !icann && !strings.Contains(suffix, ".") {
		return false
	}
	_, err := publicsuffix.EffectiveTLDPlusOne(h)
	return err == nil
}

// ExtractEmails returns addresses with a valid domain, deduplicated
// case-insensitively.
func ExtractEmails(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range emailRe.FindAllStringSubmatch(text, -1) {
		addr, domain := m[0], m[1]
		key := strings.ToLower(addr)
		if seen[key] || !validHost(domain) {
			continue
		}
		seen[key] = true
		out = append(out, addr)
	}
	return out
}

// ExtractHashtags returns #tags in first-seen spelling, deduplicated
// case-insensitively. Tags must contain a letter; URL fragments are skipped.
func ExtractHashtags(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range hashtagRe.FindAllStringSubmatch(text, -1) {
		tag := m[1]
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	return out
}

// ExtractTimestamps finds chapter lines such as "0:00 Intro" or
// "1:02:03 - Deploy".
func ExtractTimestamps(text string) []Timestamp {
	var out []Timestamp
	seen := make(map[string]bool)
	for _, m := range chapterRe.FindAllStringSubmatch(text, -1) {
		secs, ok := clockSeconds(m[1])
		if !ok {
			continue
		}
		label := strings.TrimSpace(m[2])
		key := m[1] + "\x00" + label
		if label == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, Timestamp{Offset: m[1], Seconds: secs, Label: label})
	}
	return out
}

func clockSeconds(s string) (int, bool) {
	parts := strings.Split(s, ":")
	total := 0
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, false
		}
		if i > 0 && n >= 60 {
			return 0, false
		}
		total = total*60 + n
	}
	return total, true
}

// reservedOwners are first path segments on code hosts that are not accounts.
var reservedOwners = map[string]bool{
	"about": true, "features": true, "topics": true, "orgs": true,
	"marketplace": true, "sponsors": true, "settings": true, "login": true,
	"explore": true, "collections": true, "trending": true, "apps": true,
}

// ExtractRepositories returns canonical https URLs of repositories on
// GitHub, GitLab and Bitbucket, ".git" stripped, deduplicated case-insensitively.
func ExtractRepositories(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range repoRe.FindAllStringSubmatch(text, -1) {
		host, owner, repo := strings.ToLower(m[1]), m[2], m[3]
		repo = strings.TrimRight(repo, ".")
		repo = strings.TrimSuffix(repo, ".git")
		if repo == "" || reservedOwners[strings.ToLower(owner)] {
			continue
		}
		u := "https://" + host + "/" + owner + "/" + repo
		key := strings.ToLower(u)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, u)
	}
	return out
}

// ExtractCommands finds install and CLI invocations: package manager
// installs, go get, docker pull/run, git clone, kubectl apply, helm install.
// A command spans the verb, its flags and one argument.
func ExtractCommands(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range commandRe.FindAllStringSubmatch(text, -1) {
		verb, arg := m[2], strings.TrimRight(m[4], ".,;:!?)")
		if arg == "" {
			continue
		}
		if strings.HasPrefix(verb, "go") && !strings.ContainsAny(arg, "./@") {
			continue // "go get coffee"
		}
		cmd := strings.Join(strings.Fields(m[1]), " ")
		if m[4] != arg {
			cmd = strings.Join(strings.Fields(strings.Replace(m[1], m[4], arg, 1)), " ")
		}
		if seen[cmd] {
			continue
		}
		seen[cmd] = true
		out = append(out, cmd)
	}
	return out
}

// minInlineCode drops spans like `a` or `->` that are rarely code.
const minInlineCode = 3

// ExtractCodeSnippets returns fenced ```lang blocks, then inline `code`
// spans outside any fence. Duplicates are dropped per kind.
func ExtractCodeSnippets(text string) []CodeSnippet {
	var out []CodeSnippet
	seen := make(map[string]bool)
	add := func(sn CodeSnippet) {
		key := string(sn.Type) + "\x00" + sn.Code
		if sn.Code == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, sn)
	}

	for _, m := range fenceRe.FindAllStringSubmatch(text, -1) {
		lang := strings.ToLower(m[1])
		if lang == "" {
			lang = "unknown"
		}
		add(CodeSnippet{Type: SnippetBlock, Language: lang, Code: strings.TrimSpace(m[2]), Confidence: BlockSnippetConfidence})
	}

	rest := fenceRe.ReplaceAllString(text, "\n")
	for _, m := range inlineRe.FindAllStringSubmatch(rest, -1) {
		code := strings.TrimSpace(m[1])
		if utf8.RuneCountInString(code) < minInlineCode {
			continue
		}
		add(CodeSnippet{Type: SnippetInline, Language: "unknown", Code: code, Confidence: InlineSnippetConfidence})
	}
	return out
}
