package model

import (
	"bufio"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/idna"
)

// Domain is a normalized domain name: lowercase ASCII, no scheme, no path.
// It is the identity key for every record in a run.
type Domain string

var domainRe = regexp.MustCompile(`^[a-z0-9.-]+$`)

// NormalizeDomain canonicalizes a raw domain string. It strips an optional
// http/https scheme and any path, lowercases, IDNA-encodes to punycode and
// drops a trailing dot. Returns an error for anything that does not look
// like a bare domain name.
func NormalizeDomain(raw string) (Domain, error) {
	d := strings.ToLower(strings.TrimSpace(raw))
	if d == "" {
		return "", eris.New("model: empty domain")
	}

	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	if i := strings.IndexByte(d, '/'); i >= 0 {
		d = d[:i]
	}
	d = strings.TrimSpace(d)

	ascii, err := idna.Lookup.ToASCII(d)
	if err != nil {
		return "", eris.Wrapf(err, "model: idna encode %q", raw)
	}
	ascii = strings.TrimSuffix(ascii, ".")

	if ascii == "" || !domainRe.MatchString(ascii) {
		return "", eris.Errorf("model: invalid domain %q", raw)
	}
	if !strings.Contains(ascii, ".") {
		return "", eris.Errorf("model: missing TLD in %q", raw)
	}
	return Domain(ascii), nil
}

// ReadDomains parses a domain list, one entry per line. Blank lines and
// lines starting with '#' are skipped; invalid lines are returned alongside
// the valid set so the caller can report them. When dedupe is true the
// result is deduplicated and sorted; otherwise input order and duplicates
// are preserved.
func ReadDomains(r io.Reader, dedupe bool) ([]Domain, []string, error) {
	var (
		domains []Domain
		invalid []string
	)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		d, err := NormalizeDomain(line)
		if err != nil {
			invalid = append(invalid, line)
			continue
		}
		domains = append(domains, d)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, eris.Wrap(err, "model: read domains")
	}

	if dedupe {
		seen := make(map[Domain]bool, len(domains))
		uniq := domains[:0]
		for _, d := range domains {
			if seen[d] {
				continue
			}
			seen[d] = true
			uniq = append(uniq, d)
		}
		domains = uniq
		sort.Slice(domains, func(i, j int) bool { return domains[i] < domains[j] })
	}

	return domains, invalid, nil
}
