// Package ts provides TypeScript and JavaScript structural parsing using tree-sitter.
package ts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/c360studio/specgap/processor/ast"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

func init() {
	ast.DefaultRegistry.Register("typescript",
		[]string{".ts", ".tsx", ".mts", ".cts"},
		func() ast.FileParser {
			return NewParser()
		})
	ast.DefaultRegistry.Register("javascript",
		[]string{".js", ".jsx", ".mjs", ".cjs"},
		func() ast.FileParser {
			return NewParser()
		})
}

// Parser extracts functions, classes, imports and exports from TypeScript/JavaScript
// source files using tree-sitter.
type Parser struct{}

// NewParser creates a new TypeScript/JavaScript parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile parses a single TypeScript/JavaScript file. Failures are recorded in
// ParseErrors and leave the structural fields empty.
func (p *Parser) ParseFile(ctx context.Context, filePath string) *ast.ParsedSourceFile {
	lang := detectLanguage(filePath)

	content, err := os.ReadFile(filePath)
	if err != nil {
		return ast.Failed(filePath, lang, fmt.Sprintf("read file: %v", err))
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(treeSitterLanguage(filePath))

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return ast.Failed(filePath, lang, fmt.Sprintf("parse error: %v", err))
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return ast.Failed(filePath, lang, syntaxError(root))
	}

	result := ast.NewParsedSourceFile(filePath, lang)
	w := &walker{source: content, result: result}
	w.walk(root)
	return result
}

// detectLanguage returns the language identifier for the file
func detectLanguage(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".ts", ".tsx", ".mts", ".cts":
		return "typescript"
	}
	return "javascript"
}

// treeSitterLanguage returns the tree-sitter grammar for the file type
func treeSitterLanguage(filePath string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".tsx":
		return tsx.GetLanguage()
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// syntaxError describes the first ERROR or MISSING node in the tree.
func syntaxError(root *sitter.Node) string {
	if n := firstError(root); n != nil {
		pos := n.StartPoint()
		return fmt.Sprintf("syntax error at line %d, column %d", pos.Row+1, pos.Column+1)
	}
	return "syntax error"
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || !child.HasError() && !child.IsMissing() {
			continue
		}
		if found := firstError(child); found != nil {
			return found
		}
	}
	return nil
}

// walker accumulates declarations from one syntax tree.
type walker struct {
	source []byte
	result *ast.ParsedSourceFile
}

// walk visits node and its descendants. Class bodies are handled by extractClass.
func (w *walker) walk(node *sitter.Node) {
	switch node.Type() {
	case "function_declaration", "generator_function_declaration":
		if fn, ok := w.extractFunction(node, nodeName(node, w.source)); ok {
			w.result.Functions = append(w.result.Functions, fn)
		}

	case "lexical_declaration", "variable_declaration":
		w.extractVariableFunctions(node)

	case "class_declaration", "abstract_class_declaration", "class":
		if class, ok := w.extractClass(node); ok {
			w.result.Classes = append(w.result.Classes, class)
		}

	case "import_statement":
		w.extractImport(node)

	case "export_statement":
		w.extractExport(node)

	case "call_expression":
		w.extractRequire(node)
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		if child.Type() == "class_body" {
			w.walkClassBody(child)
			continue
		}
		w.walk(child)
	}
}

// walkClassBody descends into method bodies without re-reading the members themselves.
func (w *walker) walkClassBody(body *sitter.Node) {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if member == nil {
			continue
		}
		for _, field := range []string{"body", "value"} {
			if inner := member.ChildByFieldName(field); inner != nil {
				w.walk(inner)
			}
		}
	}
}

// extractFunction builds a signature for a function-like node. name may be empty for
// anonymous functions, which are skipped.
func (w *walker) extractFunction(node *sitter.Node, name string) (ast.FunctionSignature, bool) {
	if name == "" {
		return ast.FunctionSignature{}, false
	}

	fn := ast.FunctionSignature{
		Name:       name,
		Parameters: w.extractParameters(node),
		ReturnType: w.returnType(node),
		Async:      hasChildType(node, "async"),
		Exported:   isExported(node),
		IsStub:     ast.IsStub(w.bodyShape(node.ChildByFieldName("body"))),
		Location:   location(node),
		DocComment: w.docComment(node),
	}
	return fn, true
}

// extractVariableFunctions records `const f = () => {}` and `const f = function () {}`.
// Exported follows the declaration: `export const f = ...` is exported.
func (w *walker) extractVariableFunctions(decl *sitter.Node) {
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		declarator := decl.NamedChild(i)
		if declarator == nil || declarator.Type() != "variable_declarator" {
			continue
		}
		nameNode := declarator.ChildByFieldName("name")
		value := declarator.ChildByFieldName("value")
		if nameNode == nil || value == nil || nameNode.Type() != "identifier" || !isFunctionValue(value) {
			continue
		}

		fn, ok := w.extractFunction(value, nodeText(nameNode, w.source))
		if !ok {
			continue
		}
		fn.Exported = isExported(decl)
		fn.Location = location(declarator)
		fn.DocComment = w.docComment(decl)
		w.result.Functions = append(w.result.Functions, fn)
	}
}

func isFunctionValue(n *sitter.Node) bool {
	switch n.Type() {
	case "arrow_function", "function", "function_expression", "generator_function":
		return true
	}
	return false
}

// extractClass extracts a class with its heritage, methods and properties.
func (w *walker) extractClass(node *sitter.Node) (ast.ClassDeclaration, bool) {
	name := nodeName(node, w.source)
	if name == "" {
		return ast.ClassDeclaration{}, false
	}

	class := ast.ClassDeclaration{
		Name:       name,
		Exported:   isExported(node),
		Methods:    []ast.FunctionSignature{},
		Properties: []ast.Property{},
		Location:   location(node),
		DocComment: w.docComment(node),
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child != nil && child.Type() == "class_heritage" {
			w.extractHeritage(child, &class)
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return class, true
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if member == nil {
			continue
		}
		switch member.Type() {
		case "method_definition":
			name := nodeName(member, w.source)
			if name == "constructor" {
				continue
			}
			if fn, ok := w.extractFunction(member, name); ok {
				fn.Exported = false
				class.Methods = append(class.Methods, fn)
			}

		case "public_field_definition", "field_definition":
			prop, value := w.extractProperty(member)
			if prop.Name == "" {
				continue
			}
			class.Properties = append(class.Properties, prop)
			if value != nil && isFunctionValue(value) {
				if fn, ok := w.extractFunction(value, prop.Name); ok {
					fn.Exported = false
					fn.Location = location(member)
					fn.DocComment = w.docComment(member)
					class.Methods = append(class.Methods, fn)
				}
			}
		}
	}

	return class, true
}

// extractHeritage reads extends and implements clauses. The JavaScript grammar puts the
// superclass expression directly under class_heritage.
func (w *walker) extractHeritage(heritage *sitter.Node, class *ast.ClassDeclaration) {
	for i := 0; i < int(heritage.NamedChildCount()); i++ {
		clause := heritage.NamedChild(i)
		if clause == nil {
			continue
		}
		switch clause.Type() {
		case "extends_clause":
			if value := clause.ChildByFieldName("value"); value != nil {
				class.SuperClass = nodeText(value, w.source)
			} else if clause.NamedChildCount() > 0 {
				class.SuperClass = nodeText(clause.NamedChild(0), w.source)
			}
		case "implements_clause":
			for j := 0; j < int(clause.NamedChildCount()); j++ {
				if t := clause.NamedChild(j); t != nil {
					class.Implements = append(class.Implements, stripGenerics(nodeText(t, w.source)))
				}
			}
		case "comment":
		default:
			if class.SuperClass == "" {
				class.SuperClass = nodeText(clause, w.source)
			}
		}
	}
}

// extractProperty returns the property and its initializer, if any.
func (w *walker) extractProperty(member *sitter.Node) (ast.Property, *sitter.Node) {
	nameNode := member.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = member.ChildByFieldName("property")
	}
	if nameNode == nil {
		return ast.Property{}, nil
	}

	prop := ast.Property{
		Name:     nodeText(nameNode, w.source),
		Static:   hasChildType(member, "static"),
		Optional: hasChildType(member, "?"),
		Location: location(member),
	}
	if t := member.ChildByFieldName("type"); t != nil {
		prop.Type = typeText(t, w.source)
	}
	return prop, member.ChildByFieldName("value")
}

// extractParameters reads formal parameters in order.
func (w *walker) extractParameters(node *sitter.Node) []ast.Parameter {
	params := []ast.Parameter{}

	// `x => x` has a single bare identifier instead of formal_parameters.
	if single := node.ChildByFieldName("parameter"); single != nil {
		return append(params, ast.Parameter{Name: nodeText(single, w.source)})
	}

	list := node.ChildByFieldName("parameters")
	if list == nil {
		return params
	}

	for i := 0; i < int(list.NamedChildCount()); i++ {
		child := list.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		params = append(params, w.parameter(child))
	}
	return params
}

// parameter converts one parameter node from either grammar.
func (w *walker) parameter(n *sitter.Node) ast.Parameter {
	switch n.Type() {
	case "required_parameter", "optional_parameter":
		param := ast.Parameter{Optional: n.Type() == "optional_parameter"}
		pattern := n.ChildByFieldName("pattern")
		if pattern != nil {
			param = mergePattern(param, w.parameter(pattern))
		}
		if t := n.ChildByFieldName("type"); t != nil {
			param.Type = typeText(t, w.source)
		}
		if v := n.ChildByFieldName("value"); v != nil {
			param.Default = nodeText(v, w.source)
			param.Optional = true
		}
		return param

	case "assignment_pattern":
		param := ast.Parameter{Optional: true}
		if left := n.ChildByFieldName("left"); left != nil {
			param = mergePattern(param, w.parameter(left))
		}
		if right := n.ChildByFieldName("right"); right != nil {
			param.Default = nodeText(right, w.source)
		}
		return param

	case "rest_pattern":
		param := ast.Parameter{Rest: true}
		if n.NamedChildCount() > 0 {
			param.Name = nodeText(n.NamedChild(0), w.source)
		}
		return param
	}

	return ast.Parameter{Name: nodeText(n, w.source)}
}

func mergePattern(param, inner ast.Parameter) ast.Parameter {
	param.Name = inner.Name
	param.Rest = param.Rest || inner.Rest
	if param.Default == "" {
		param.Default = inner.Default
	}
	param.Optional = param.Optional || inner.Optional
	return param
}

func (w *walker) returnType(node *sitter.Node) string {
	if t := node.ChildByFieldName("return_type"); t != nil {
		return typeText(t, w.source)
	}
	return ""
}

// bodyShape summarizes a function body for the stub rule. Expression-bodied arrow
// functions count as one non-return statement.
func (w *walker) bodyShape(body *sitter.Node) ast.BodyShape {
	if body == nil {
		return ast.BodyShape{Statements: 1}
	}
	if body.Type() != "statement_block" {
		return ast.BodyShape{Statements: 1}
	}

	stmts := namedNonComments(body)
	shape := ast.BodyShape{Statements: len(stmts)}
	if len(stmts) != 1 || stmts[0].Type() != "return_statement" {
		return shape
	}

	values := namedNonComments(stmts[0])
	if len(values) != 1 {
		return shape
	}
	value := values[0]
	for value.Type() == "parenthesized_expression" && value.NamedChildCount() == 1 {
		value = value.NamedChild(0)
	}
	if value.Type() == "string" {
		shape.ReturnsString = true
		shape.Literal = stringLiteral(nodeText(value, w.source))
	}
	return shape
}

// extractImport reads `import d, * as ns, { a, b as c } from 'src'`.
func (w *walker) extractImport(node *sitter.Node) {
	src := node.ChildByFieldName("source")
	if src == nil {
		return
	}

	imp := ast.ImportDeclaration{
		Source: stringLiteral(nodeText(src, w.source)),
		Line:   int(node.StartPoint().Row) + 1,
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		clause := node.NamedChild(i)
		if clause == nil || clause.Type() != "import_clause" {
			continue
		}
		for j := 0; j < int(clause.NamedChildCount()); j++ {
			part := clause.NamedChild(j)
			if part == nil {
				continue
			}
			switch part.Type() {
			case "identifier":
				imp.Default = nodeText(part, w.source)
			case "namespace_import":
				if part.NamedChildCount() > 0 {
					imp.Namespace = nodeText(part.NamedChild(0), w.source)
				}
			case "named_imports":
				for k := 0; k < int(part.NamedChildCount()); k++ {
					spec := part.NamedChild(k)
					if spec == nil || spec.Type() != "import_specifier" {
						continue
					}
					if name := spec.ChildByFieldName("name"); name != nil {
						imp.Names = append(imp.Names, nodeText(name, w.source))
					}
				}
			}
		}
	}

	w.result.Imports = append(w.result.Imports, imp)
}

// extractRequire records CommonJS `require('src')` calls as imports.
func (w *walker) extractRequire(node *sitter.Node) {
	fn := node.ChildByFieldName("function")
	if fn == nil || nodeText(fn, w.source) != "require" {
		return
	}
	args := node.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return
	}
	arg := args.NamedChild(0)
	if arg == nil || arg.Type() != "string" {
		return
	}
	w.result.Imports = append(w.result.Imports, ast.ImportDeclaration{
		Source: stringLiteral(nodeText(arg, w.source)),
		Line:   int(node.StartPoint().Row) + 1,
	})
}

// extractExport records the names an export statement makes visible.
func (w *walker) extractExport(node *sitter.Node) {
	line := int(node.StartPoint().Row) + 1
	isDefault := hasChildType(node, "default")

	add := func(name, kind string) {
		w.result.Exports = append(w.result.Exports, ast.ExportDeclaration{
			Name:    name,
			Kind:    kind,
			Default: isDefault,
			Line:    line,
		})
	}

	if decl := node.ChildByFieldName("declaration"); decl != nil {
		switch decl.Type() {
		case "function_declaration", "generator_function_declaration":
			add(nodeName(decl, w.source), ast.ExportFunction)
		case "class_declaration", "abstract_class_declaration":
			add(nodeName(decl, w.source), ast.ExportClass)
		case "lexical_declaration", "variable_declaration":
			for i := 0; i < int(decl.NamedChildCount()); i++ {
				d := decl.NamedChild(i)
				if d == nil || d.Type() != "variable_declarator" {
					continue
				}
				if name := d.ChildByFieldName("name"); name != nil {
					add(nodeText(name, w.source), ast.ExportVariable)
				}
			}
		case "interface_declaration", "type_alias_declaration", "enum_declaration":
			add(nodeName(decl, w.source), ast.ExportType)
		}
		return
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Type() != "export_clause" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			spec := child.NamedChild(j)
			if spec == nil || spec.Type() != "export_specifier" {
				continue
			}
			name := spec.ChildByFieldName("alias")
			if name == nil {
				name = spec.ChildByFieldName("name")
			}
			if name != nil {
				add(nodeText(name, w.source), ast.ExportNamed)
			}
		}
		return
	}

	if isDefault {
		name := "default"
		if value := node.ChildByFieldName("value"); value != nil {
			if n := nodeName(value, w.source); n != "" {
				name = n
			} else if value.Type() == "identifier" {
				name = nodeText(value, w.source)
			}
		}
		add(name, ast.ExportDefault)
		return
	}

	if hasChildType(node, "*") {
		add("*", ast.ExportNamed)
	}
}

// docComment returns the JSDoc block directly preceding the declaration, looking
// through an enclosing export statement.
func (w *walker) docComment(node *sitter.Node) string {
	target := node
	if parent := node.Parent(); parent != nil && parent.Type() == "export_statement" {
		target = parent
	}
	prev := target.PrevNamedSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	text := nodeText(prev, w.source)
	if !strings.HasPrefix(text, "/**") {
		return ""
	}
	if int(target.StartPoint().Row)-int(prev.EndPoint().Row) > 1 {
		return ""
	}
	return cleanDocComment(text)
}

func cleanDocComment(text string) string {
	text = strings.TrimSuffix(strings.TrimPrefix(text, "/**"), "*/")
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		l = strings.TrimSpace(strings.TrimPrefix(l, "*"))
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// isExported is true only when node's immediate parent is an export statement.
func isExported(node *sitter.Node) bool {
	parent := node.Parent()
	return parent != nil && parent.Type() == "export_statement"
}

func hasChildType(node *sitter.Node, typ string) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child != nil && child.Type() == typ {
			return true
		}
	}
	return false
}

func namedNonComments(node *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child != nil && child.Type() != "comment" {
			out = append(out, child)
		}
	}
	return out
}

func location(node *sitter.Node) ast.Location {
	return ast.Location{
		Line:    int(node.StartPoint().Row) + 1,
		Column:  int(node.StartPoint().Column) + 1,
		EndLine: int(node.EndPoint().Row) + 1,
	}
}

func nodeName(node *sitter.Node, source []byte) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return nodeText(name, source)
	}
	return ""
}

// typeText returns a type annotation without its leading colon.
func typeText(node *sitter.Node, source []byte) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(nodeText(node, source)), ":"))
}

func stripGenerics(name string) string {
	if idx := strings.Index(name, "<"); idx > 0 {
		return name[:idx]
	}
	return name
}

// stringLiteral unquotes a JavaScript string literal.
func stringLiteral(raw string) string {
	if len(raw) >= 2 && raw[0] == '"' {
		if s, err := strconv.Unquote(raw); err == nil {
			return s
		}
	}
	if len(raw) >= 2 && (raw[0] == '\'' || raw[0] == '"') && raw[len(raw)-1] == raw[0] {
		return raw[1 : len(raw)-1]
	}
	return raw
}

// nodeText returns the text content of a node
func nodeText(node *sitter.Node, source []byte) string {
	return node.Content(source)
}

// IsTargetFile returns true if the file is a TypeScript/JavaScript file
func IsTargetFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".ts", ".tsx", ".js", ".jsx", ".mts", ".cts", ".mjs", ".cjs":
		return true
	}
	return false
}
