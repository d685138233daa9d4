// Command apicompat fails when the compiled API docs drop routes, response
// codes or anonymous access that a previously published swagger document had.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"circles/docs"

	"gopkg.in/yaml.v3"
)

var httpMethods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true, "patch": true,
}

type endpoint struct {
	responses map[string]bool
	secured   bool
}

// apiSurface maps path -> method -> endpoint.
type apiSurface map[string]map[string]endpoint

func main() {
	basePath := flag.String("base", "", "published swagger document (yaml or json)")
	revisionPath := flag.String("revision", "", "candidate swagger document; defaults to the compiled docs")
	flag.Parse()

	if strings.TrimSpace(*basePath) == "" {
		fmt.Fprintln(os.Stderr, "usage: apicompat -base <path> [-revision <path>]")
		os.Exit(2)
	}

	base, err := loadFile(*basePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load base document: %v\n", err)
		os.Exit(1)
	}

	var revision apiSurface
	if *revisionPath != "" {
		revision, err = loadFile(*revisionPath)
	} else {
		revision, err = parseSurface([]byte(docs.SwaggerInfo.ReadDoc()))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load revision document: %v\n", err)
		os.Exit(1)
	}

	if issues := breakingChanges(base, revision); len(issues) > 0 {
		fmt.Fprintln(os.Stderr, "backward compatibility check failed:")
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "- %s\n", issue)
		}
		os.Exit(1)
	}
	fmt.Println("api compatibility check passed")
}

func loadFile(path string) (apiSurface, error) {
	// #nosec G304: dev tool reading a path from flags
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseSurface(raw)
}

// parseSurface reads swagger 2.0 documents. JSON input parses as YAML.
func parseSurface(raw []byte) (apiSurface, error) {
	var doc struct {
		Security []map[string][]string          `yaml:"security"`
		Paths    map[string]map[string]yaml.Node `yaml:"paths"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Paths == nil {
		return nil, errors.New("missing top-level paths field")
	}

	surface := make(apiSurface, len(doc.Paths))
	for path, methods := range doc.Paths {
		ops := make(map[string]endpoint)
		for method, node := range methods {
			method = strings.ToLower(strings.TrimSpace(method))
			if !httpMethods[method] {
				continue
			}
			var op struct {
				Responses map[string]yaml.Node   `yaml:"responses"`
				Security  *[]map[string][]string `yaml:"security"`
			}
			if err := node.Decode(&op); err != nil {
				return nil, fmt.Errorf("%s %s: %w", strings.ToUpper(method), path, err)
			}
			ep := endpoint{responses: make(map[string]bool, len(op.Responses)), secured: len(doc.Security) > 0}
			if op.Security != nil {
				ep.secured = len(*op.Security) > 0
			}
			for code := range op.Responses {
				ep.responses[strings.ToLower(strings.TrimSpace(code))] = true
			}
			ops[method] = ep
		}
		if len(ops) > 0 {
			surface[path] = ops
		}
	}
	return surface, nil
}

func breakingChanges(base, revision apiSurface) []string {
	var issues []string
	for path, baseOps := range base {
		revOps, ok := revision[path]
		if !ok {
			issues = append(issues, "removed path: "+path)
			continue
		}
		for method, baseOp := range baseOps {
			name := strings.ToUpper(method) + " " + path
			revOp, ok := revOps[method]
			if !ok {
				issues = append(issues, "removed operation: "+name)
				continue
			}
			if !baseOp.secured && revOp.secured {
				issues = append(issues, "anonymous access removed: "+name)
			}
			for code := range baseOp.responses {
				if !revOp.responses[code] {
					issues = append(issues, fmt.Sprintf("removed response code: %s -> %s", name, strings.ToUpper(code)))
				}
			}
		}
	}
	sort.Strings(issues)
	return issues
}
