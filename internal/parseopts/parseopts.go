// Package parseopts holds the environment/file feature-switch layer: the
// six BB_OPT_DISABLE_* toggles the rest of the parse layer consults to turn
// off a cache or index for debugging, grounded on the original's
// os.environ.get(...) reads scattered through bb.parse, plus an optional
// bbcore.kdl file that can set the same switches, environment always
// taking precedence. The file-loading shape (stat-then-parse, defaults
// filled in before the document is walked) mirrors
// internal/config/kdl_config.go's LoadKDL/parseKDL.
package parseopts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// Options is every feature switch the parse layer consults. All default to
// false (nothing disabled) unless overridden.
type Options struct {
	DisableSupportsCache  bool
	DisableResolveCache   bool
	DisableClassIndex     bool
	DisableIncludeIndex   bool
	DisableStatementCache bool
	DisableInheritMemo    bool

	BBPath     string
	MetricsDir string
}

const (
	envDisableSupportsCache  = "BB_OPT_DISABLE_SUPPORTS_CACHE"
	envDisableResolveCache   = "BB_OPT_DISABLE_RESOLVE_CACHE"
	envDisableClassIndex     = "BB_OPT_DISABLE_CLASS_INDEX"
	envDisableIncludeIndex   = "BB_OPT_DISABLE_INCLUDE_INDEX"
	envDisableStatementCache = "BB_OPT_DISABLE_CONF_AST_CACHE"
	envDisableInheritMemo    = "BB_OPT_DISABLE_INHERIT_MEMO"
	envBBPath                = "BBPATH"
	envMetricsDir            = "BB_OPT_METRICS_DIR"
)

// Load builds Options by first reading projectRoot/bbcore.kdl (if present),
// then layering os.Environ() on top — environment always wins, mirroring
// the original's environment-only reads while letting a checked-in file
// supply defaults for the same switches.
func Load(projectRoot string) (*Options, error) {
	opts := &Options{}

	kdlPath := filepath.Join(projectRoot, "bbcore.kdl")
	if content, err := os.ReadFile(kdlPath); err == nil {
		if err := parseKDL(string(content), opts); err != nil {
			return nil, fmt.Errorf("failed to parse bbcore.kdl: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read bbcore.kdl: %w", err)
	}

	applyEnv(opts, os.Environ())
	return opts, nil
}

func applyEnv(opts *Options, environ []string) {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if idx := strings.IndexByte(kv, '='); idx >= 0 {
			env[kv[:idx]] = kv[idx+1:]
		}
	}

	if v, ok := env[envDisableSupportsCache]; ok {
		opts.DisableSupportsCache = parseBool(v)
	}
	if v, ok := env[envDisableResolveCache]; ok {
		opts.DisableResolveCache = parseBool(v)
	}
	if v, ok := env[envDisableClassIndex]; ok {
		opts.DisableClassIndex = parseBool(v)
	}
	if v, ok := env[envDisableIncludeIndex]; ok {
		opts.DisableIncludeIndex = parseBool(v)
	}
	if v, ok := env[envDisableStatementCache]; ok {
		opts.DisableStatementCache = parseBool(v)
	}
	if v, ok := env[envDisableInheritMemo]; ok {
		opts.DisableInheritMemo = parseBool(v)
	}
	if v, ok := env[envBBPath]; ok && v != "" {
		opts.BBPath = v
	}
	if v, ok := env[envMetricsDir]; ok && v != "" {
		opts.MetricsDir = v
	}
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseKDL(content string, opts *Options) error {
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return err
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "bbpath":
			if s, ok := firstStringArg(n); ok {
				opts.BBPath = s
			}
		case "metrics_dir":
			if s, ok := firstStringArg(n); ok {
				opts.MetricsDir = s
			}
		case "disable":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "supports_cache":
					if b, ok := firstBoolArg(cn); ok {
						opts.DisableSupportsCache = b
					}
				case "resolve_cache":
					if b, ok := firstBoolArg(cn); ok {
						opts.DisableResolveCache = b
					}
				case "class_index":
					if b, ok := firstBoolArg(cn); ok {
						opts.DisableClassIndex = b
					}
				case "include_index":
					if b, ok := firstBoolArg(cn); ok {
						opts.DisableIncludeIndex = b
					}
				case "statement_cache":
					if b, ok := firstBoolArg(cn); ok {
						opts.DisableStatementCache = b
					}
				case "inherit_memo":
					if b, ok := firstBoolArg(cn); ok {
						opts.DisableInheritMemo = b
					}
				}
			}
		}
	}
	return nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}
