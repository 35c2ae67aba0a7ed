// Package discovery scans Go source for structs that carry hydration tags
// and lists the lookup keys each struct would be hydrated from.
package discovery

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/hengadev/hydrx/internal/tags"
)

// StructInfo contains information about a struct with hydration tags
type StructInfo struct {
	PackageName string
	StructName  string
	SourceFile  string
	Line        int
	Fields      []FieldInfo
	HasTags     bool
	// Errors holds struct level problems such as duplicate keys.
	Errors []string
}

// FieldInfo contains information about one field of a discovered struct
type FieldInfo struct {
	Name     string
	Path     string
	Type     string
	Key      string
	Explicit bool
	Ignored  bool
	// Embedded is set on fields reached through an embedded struct.
	Embedded bool
	// Unresolved is set for embedded types declared outside the scanned
	// package; they are reported as a single leaf under their type name.
	Unresolved       bool
	IsValid          bool
	ValidationErrors []string
}

// Config holds configuration for struct discovery
type Config struct {
	TagName      string
	SkipPackages []string
	// All reports every struct, not only those with hydration tags.
	All bool
}

// Keys returns the struct's lookup keys in plan order.
func (s StructInfo) Keys() []string {
	keys := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.Ignored || f.Key == "" {
			continue
		}
		keys = append(keys, f.Key)
	}
	return keys
}

// Valid reports whether neither the struct nor any field has errors.
func (s StructInfo) Valid() bool {
	if len(s.Errors) > 0 {
		return false
	}
	for _, f := range s.Fields {
		if !f.IsValid {
			return false
		}
	}
	return true
}

type typeDecl struct {
	name   string
	file   string
	line   int
	fields *ast.StructType
}

// DiscoverStructs discovers structs with hydration tags in the given package directory
func DiscoverStructs(packagePath string, config *Config) ([]StructInfo, error) {
	if config == nil {
		config = &Config{}
	}
	tagName := config.TagName
	if tagName == "" {
		tagName = tags.DefaultTagName
	}

	fset := token.NewFileSet()
	pkgs, err := parser.ParseDir(fset, packagePath, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", packagePath, err)
	}

	pkgNames := make([]string, 0, len(pkgs))
	for name := range pkgs {
		pkgNames = append(pkgNames, name)
	}
	sort.Strings(pkgNames)

	var structs []StructInfo
	for _, pkgName := range pkgNames {
		if strings.HasSuffix(pkgName, "_test") || slices.Contains(config.SkipPackages, pkgName) {
			continue
		}

		decls := collectStructs(fset, pkgs[pkgName])
		names := make([]string, 0, len(decls))
		for name := range decls {
			names = append(names, name)
		}
		sort.Strings(names)

		a := &analyzer{pkgName: pkgName, tagName: tagName, decls: decls}
		for _, name := range names {
			info := a.analyzeStruct(decls[name])
			if info.HasTags || config.All {
				structs = append(structs, info)
			}
		}
	}

	return structs, nil
}

// FindStruct returns the named struct from the package directory, tagged or not.
func FindStruct(packagePath, structName string, config *Config) (StructInfo, error) {
	cfg := Config{All: true}
	if config != nil {
		cfg.TagName = config.TagName
		cfg.SkipPackages = config.SkipPackages
	}
	structs, err := DiscoverStructs(packagePath, &cfg)
	if err != nil {
		return StructInfo{}, err
	}
	for _, s := range structs {
		if s.StructName == structName {
			return s, nil
		}
	}
	return StructInfo{}, fmt.Errorf("struct %s not found in %s", structName, packagePath)
}

// collectStructs indexes the package's top level struct declarations by name.
func collectStructs(fset *token.FileSet, pkg *ast.Package) map[string]typeDecl {
	decls := make(map[string]typeDecl)
	for fileName, file := range pkg.Files {
		if strings.HasSuffix(fileName, "_test.go") {
			continue
		}
		for _, d := range file.Decls {
			gen, ok := d.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, spec := range gen.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok || ts.TypeParams != nil {
					continue
				}
				st, ok := ts.Type.(*ast.StructType)
				if !ok {
					continue
				}
				decls[ts.Name.Name] = typeDecl{
					name:   ts.Name.Name,
					file:   filepath.Base(fileName),
					line:   fset.Position(ts.Pos()).Line,
					fields: st,
				}
			}
		}
	}
	return decls
}

type analyzer struct {
	pkgName string
	tagName string
	decls   map[string]typeDecl
}

// analyzeStruct walks a struct's fields the way the runtime plan does:
// declaration order, untagged embedded structs flattened in place.
func (a *analyzer) analyzeStruct(decl typeDecl) StructInfo {
	info := StructInfo{
		PackageName: a.pkgName,
		StructName:  decl.name,
		SourceFile:  decl.file,
		Line:        decl.line,
	}

	tagged := false
	a.walk(decl.fields, nil, map[string]bool{decl.name: true}, &info.Fields, &tagged)
	info.HasTags = tagged

	seen := make(map[string]string)
	for _, f := range info.Fields {
		if f.Ignored || f.Key == "" {
			continue
		}
		if other, ok := seen[f.Key]; ok {
			info.Errors = append(info.Errors, fmt.Sprintf("duplicate key '%s' on '%s', already used by '%s'", f.Key, f.Path, other))
			continue
		}
		seen[f.Key] = f.Path
	}

	return info
}

func (a *analyzer) walk(st *ast.StructType, path []string, visiting map[string]bool, out *[]FieldInfo, tagged *bool) {
	for _, field := range st.Fields.List {
		rawTag := ""
		if field.Tag != nil {
			rawTag = field.Tag.Value
			if hasTag(rawTag, a.tagName) {
				*tagged = true
			}
		}

		if len(field.Names) == 0 {
			a.walkEmbedded(field, rawTag, path, visiting, out, tagged)
			continue
		}

		for _, name := range field.Names {
			if !name.IsExported() {
				continue
			}
			*out = append(*out, a.analyzeField(name.Name, rawTag, field.Type, path))
		}
	}
}

func (a *analyzer) walkEmbedded(field *ast.Field, rawTag string, path []string, visiting map[string]bool, out *[]FieldInfo, tagged *bool) {
	typeName, local := embeddedName(field.Type)
	fieldName := typeName
	if i := strings.LastIndex(fieldName, "."); i >= 0 {
		fieldName = fieldName[i+1:]
	}

	if _, ptr := field.Type.(*ast.StarExpr); ptr && !ast.IsExported(fieldName) {
		return
	}

	spec, err := tags.Extract(fieldName, rawTag, a.tagName)
	if err == nil && !spec.Ignore && !spec.Explicit && local {
		if decl, ok := a.decls[typeName]; ok {
			if !visiting[typeName] {
				visiting[typeName] = true
				a.walk(decl.fields, append(slices.Clone(path), fieldName), visiting, out, tagged)
				delete(visiting, typeName)
			}
			return
		}
	}

	if !ast.IsExported(fieldName) {
		return
	}
	info := a.analyzeField(fieldName, rawTag, field.Type, path)
	info.Unresolved = !local && !spec.Explicit && !spec.Ignore
	*out = append(*out, info)
}

// analyzeField resolves a single field's key from its tag
func (a *analyzer) analyzeField(fieldName, rawTag string, expr ast.Expr, path []string) FieldInfo {
	info := FieldInfo{
		Name:     fieldName,
		Path:     strings.Join(append(slices.Clone(path), fieldName), "."),
		Type:     getTypeString(expr),
		Embedded: len(path) > 0,
		IsValid:  true,
	}

	spec, err := tags.Extract(fieldName, rawTag, a.tagName)
	if err != nil {
		info.IsValid = false
		info.ValidationErrors = append(info.ValidationErrors, err.Error())
		return info
	}
	info.Key = spec.Key
	info.Explicit = spec.Explicit
	info.Ignored = spec.Ignore
	return info
}

// embeddedName returns the type name of an embedded field and whether it is
// declared in the scanned package.
func embeddedName(expr ast.Expr) (string, bool) {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name, true
	case *ast.StarExpr:
		return embeddedName(t.X)
	case *ast.SelectorExpr:
		return getTypeString(t), false
	case *ast.IndexExpr:
		name, _ := embeddedName(t.X)
		return name, false
	case *ast.IndexListExpr:
		name, _ := embeddedName(t.X)
		return name, false
	default:
		return getTypeString(expr), false
	}
}

func hasTag(rawTag, tagName string) bool {
	_, ok := reflect.StructTag(strings.Trim(rawTag, "`")).Lookup(tagName)
	return ok
}

// getTypeString converts an ast.Expr to its string representation
func getTypeString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.ArrayType:
		if t.Len == nil {
			return "[]" + getTypeString(t.Elt)
		}
		return "[...]" + getTypeString(t.Elt)
	case *ast.StarExpr:
		return "*" + getTypeString(t.X)
	case *ast.SelectorExpr:
		return getTypeString(t.X) + "." + t.Sel.Name
	case *ast.MapType:
		return "map[" + getTypeString(t.Key) + "]" + getTypeString(t.Value)
	case *ast.InterfaceType:
		return "interface{}"
	case *ast.FuncType:
		return "func"
	case *ast.ChanType:
		return "chan " + getTypeString(t.Value)
	case *ast.IndexExpr:
		return getTypeString(t.X) + "[" + getTypeString(t.Index) + "]"
	default:
		return "unknown"
	}
}
