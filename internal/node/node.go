// Package node defines the tagged variants stored in the request graph.
//
// Every node kind derives its id from its own fields — "id uniquely
// encodes kind + key" is enforced locally by each constructor, not by
// the graph that stores the result. Equality and hashing of a Node are
// by id alone.
package node

import "fmt"

// Kind tags which variant a Node is.
type Kind string

const (
	KindRequest           Kind = "request"
	KindFile              Kind = "file"
	KindGlob              Kind = "glob"
	KindFileName          Kind = "file_name"
	KindExtensionlessFile Kind = "extensionless_file"
	KindEnv               Kind = "env"
	KindOption            Kind = "option"
)

// Node is implemented by every variant. The graph package stores values
// satisfying this interface and keys them by ID().
type Node interface {
	ID() string
	Kind() Kind
}

// Request is a memoized unit of build work. Its id is caller-supplied,
// typically a content hash of request type + input (see ComputeRequestID).
type Request struct {
	RequestID string
	Type      string
	Input     any
	Result    any
	HasResult bool
}

func NewRequest(id, typ string, input any) *Request {
	return &Request{RequestID: id, Type: typ, Input: input}
}

func (r *Request) ID() string   { return r.RequestID }
func (r *Request) Kind() Kind   { return KindRequest }
func (r *Request) String() string {
	return fmt.Sprintf("Request{id=%s type=%s}", r.RequestID, r.Type)
}

// File represents content at an absolute path. Its id is the path itself.
type File struct {
	Path string
}

func NewFile(path string) *File { return &File{Path: path} }

func (f *File) ID() string { return f.Path }
func (f *File) Kind() Kind { return KindFile }

// Glob represents the set of paths matching a pattern. Its id is the
// pattern string itself.
type Glob struct {
	Pattern string
}

func NewGlob(pattern string) *Glob { return &Glob{Pattern: pattern} }

func (g *Glob) ID() string { return g.Pattern }
func (g *Glob) Kind() Kind { return KindGlob }

// FileName is a segment used to express "a file named X somewhere
// above a directory." Its id is "file_name:" + basename.
type FileName struct {
	Basename string
}

func NewFileName(basename string) *FileName { return &FileName{Basename: basename} }

func FileNameID(basename string) string { return "file_name:" + basename }

func (f *FileName) ID() string { return FileNameID(f.Basename) }
func (f *FileName) Kind() Kind { return KindFileName }

// ExtensionlessFile represents "any of path.ext1, path.ext2, …". Its id
// is "extensionless_file:" + path; its Extensions set may grow across
// re-declarations (callers union, never replace).
type ExtensionlessFile struct {
	Path       string
	Extensions map[string]struct{}
}

func NewExtensionlessFile(path string, extensions []string) *ExtensionlessFile {
	ef := &ExtensionlessFile{Path: path, Extensions: make(map[string]struct{}, len(extensions))}
	for _, ext := range extensions {
		ef.Extensions[ext] = struct{}{}
	}
	return ef
}

func ExtensionlessFileID(path string) string { return "extensionless_file:" + path }

func (e *ExtensionlessFile) ID() string { return ExtensionlessFileID(e.Path) }
func (e *ExtensionlessFile) Kind() Kind { return KindExtensionlessFile }

// HasExtension reports whether ext (including the leading dot) is in
// the union of extensions this node has been declared with.
func (e *ExtensionlessFile) HasExtension(ext string) bool {
	_, ok := e.Extensions[ext]
	return ok
}

// UnionExtensions merges extensions into the node's set in place,
// returning true if any new extension was added.
func (e *ExtensionlessFile) UnionExtensions(extensions []string) bool {
	grew := false
	for _, ext := range extensions {
		if _, ok := e.Extensions[ext]; !ok {
			e.Extensions[ext] = struct{}{}
			grew = true
		}
	}
	return grew
}

// Env captures the value of an environment variable at declaration
// time; InvalidateEnvNodes replaces it with the current value when it
// finds a change. Its id is "env:" + name.
type Env struct {
	Name  string
	Value string
}

func NewEnv(name, value string) *Env { return &Env{Name: name, Value: value} }

func EnvID(name string) string { return "env:" + name }

func (e *Env) ID() string { return EnvID(e.Name) }
func (e *Env) Kind() Kind { return KindEnv }

// Option captures a stable hash of a configuration option's value at
// declaration time, not the value itself, so structurally equivalent
// configurations compare equal across runs. Its id is "option:" + name.
type Option struct {
	Name string
	Hash string
}

func NewOption(name, hash string) *Option { return &Option{Name: name, Hash: hash} }

func OptionID(name string) string { return "option:" + name }

func (o *Option) ID() string { return OptionID(o.Name) }
func (o *Option) Kind() Kind { return KindOption }
