// Package descriptor fetches and parses the remote BioBeamer XML
// descriptor: a collection of <host> entries, each declaring which ref
// (tag or branch) of BioBeamer a given host must run.
package descriptor

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// ErrHostNotConfigured means the descriptor has no entry for the requested
// host. Fatal: the user must fix either the descriptor or host_name.
var ErrHostNotConfigured = errors.New("host not configured in descriptor")

// Host is one parsed <host> entry.
//
// Attributes:
//
//	name    — host name matched against the launcher's host_name
//	version — ref name (tag, or branch when branch="true")
//	branch  — optional; "true" marks version as a tracking branch
type Host struct {
	Name     string
	Version  string
	IsBranch bool
}

// SelectHost parses the descriptor XML from r and returns the single entry
// whose name equals hostName. Direct children of the document root are
// preferred; nested <host> elements at any depth are considered as a
// fallback. Absence is an error, never a default.
func SelectHost(r io.Reader, hostName string) (Host, error) {
	hosts, err := parseHosts(r)
	if err != nil {
		return Host{}, fmt.Errorf("parse descriptor XML: %w", err)
	}

	// Direct children first, then any depth.
	for _, pass := range []int{1, 0} {
		for _, h := range hosts {
			if pass == 1 && h.depth != 1 {
				continue
			}
			if h.Name == hostName {
				if h.Version == "" {
					return Host{}, fmt.Errorf("descriptor entry for host %q has no version attribute", hostName)
				}
				return h.Host, nil
			}
		}
	}

	return Host{}, fmt.Errorf("%w: host %q (available hosts: %s)",
		ErrHostNotConfigured, hostName, strings.Join(availableNames(hosts), ", "))
}

type parsedHost struct {
	Host
	depth int
}

// parseHosts walks the token stream rather than decoding into a fixed
// struct so <host> elements are found at any nesting depth, matching the
// descriptor files seen in the field.
func parseHosts(r io.Reader) ([]parsedHost, error) {
	dec := xml.NewDecoder(r)

	var hosts []parsedHost
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			depth++
			if el.Name.Local != "host" {
				continue
			}
			h := parsedHost{depth: depth - 1} // depth relative to document root
			for _, attr := range el.Attr {
				switch attr.Name.Local {
				case "name":
					h.Name = attr.Value
				case "version":
					h.Version = attr.Value
				case "branch":
					h.IsBranch = attr.Value == "true" || attr.Value == "1"
				}
			}
			hosts = append(hosts, h)
		case xml.EndElement:
			depth--
		}
	}
	return hosts, nil
}

func availableNames(hosts []parsedHost) []string {
	seen := make(map[string]struct{}, len(hosts))
	var out []string
	for _, h := range hosts {
		if h.Name == "" {
			continue
		}
		if _, ok := seen[h.Name]; ok {
			continue
		}
		seen[h.Name] = struct{}{}
		out = append(out, h.Name)
	}
	sort.Strings(out)
	return out
}

// SelectHostFile is SelectHost over a file path.
func SelectHostFile(path, hostName string) (Host, error) {
	f, err := os.Open(path)
	if err != nil {
		return Host{}, fmt.Errorf("open descriptor %s: %w", path, err)
	}
	defer f.Close()
	return SelectHost(f, hostName)
}
