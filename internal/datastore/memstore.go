package datastore

import "strings"

// MemDataStore is a plain in-memory Datastore, sufficient for unit tests and
// the CLI's demo subcommands. It is not a production datastore: Expand does
// a single non-lazy left-to-right substitution pass and does not implement
// override resolution, conditional removal, or BitBake's OverrideDataStoreOS
// semantics.
type MemDataStore struct {
	vars      map[string]string
	flags     map[string]map[string]string
	includes  []string
	inherited map[string]bool
}

// NewMemDataStore returns an empty MemDataStore.
func NewMemDataStore() *MemDataStore {
	return &MemDataStore{
		vars:      make(map[string]string),
		flags:     make(map[string]map[string]string),
		inherited: make(map[string]bool),
	}
}

func (d *MemDataStore) GetVar(name string) (string, bool) {
	v, ok := d.vars[name]
	return v, ok
}

func (d *MemDataStore) SetVar(name, value string) {
	d.vars[name] = value
}

func (d *MemDataStore) DelVar(name string) {
	delete(d.vars, name)
	delete(d.flags, name)
}

func (d *MemDataStore) GetVarFlag(name, flag string) (string, bool) {
	flags, ok := d.flags[name]
	if !ok {
		return "", false
	}
	v, ok := flags[flag]
	return v, ok
}

func (d *MemDataStore) SetVarFlag(name, flag, value string) {
	flags, ok := d.flags[name]
	if !ok {
		flags = make(map[string]string)
		d.flags[name] = flags
	}
	flags[flag] = value
}

func (d *MemDataStore) DelVarFlag(name, flag string) {
	if flags, ok := d.flags[name]; ok {
		delete(flags, flag)
	}
}

// Expand replaces every ${NAME} occurrence in expr with the current value
// of NAME, leaving unresolved references untouched. One pass only: a
// variable's value is not itself re-expanded, unlike bitbake's real lazy
// expansion.
func (d *MemDataStore) Expand(expr string) (string, error) {
	var b strings.Builder
	i := 0
	for i < len(expr) {
		start := strings.Index(expr[i:], "${")
		if start < 0 {
			b.WriteString(expr[i:])
			break
		}
		start += i
		b.WriteString(expr[i:start])
		end := strings.Index(expr[start+2:], "}")
		if end < 0 {
			b.WriteString(expr[start:])
			break
		}
		end += start + 2
		name := expr[start+2 : end]
		if v, ok := d.vars[name]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(expr[start : end+1])
		}
		i = end + 1
	}
	return b.String(), nil
}

func (d *MemDataStore) IncludeHistory() []string {
	out := make([]string, len(d.includes))
	copy(out, d.includes)
	return out
}

func (d *MemDataStore) PushInclude(path string) {
	d.includes = append(d.includes, path)
}

func (d *MemDataStore) PopInclude() {
	if len(d.includes) > 0 {
		d.includes = d.includes[:len(d.includes)-1]
	}
}

func (d *MemDataStore) InheritedClasses() map[string]bool {
	out := make(map[string]bool, len(d.inherited))
	for k, v := range d.inherited {
		out[k] = v
	}
	return out
}

func (d *MemDataStore) MarkInherited(classtype, name string) {
	d.inherited[classtype+":"+name] = true
}
