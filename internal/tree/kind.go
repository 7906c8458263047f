package tree

// Kind tags a syntax node with its syntactic category. The taxonomy is the
// contract with the front end: bundles carry these numeric values, so the
// order of existing entries must not change.
//
// Child layout conventions the front end must follow (heuristics rely on
// them):
//
//	If:         [condition, thenBranch, elseBranch?]
//	Ternary:    [condition, whenTrue, whenFalse]
//	Assignment: [target, value]
//	Invocation: [receiver?, Argument...]; Symbol is the invoked name
//	MethodDecl: Symbol is the method name; body is a Block child
//	FieldDecl:  Symbol is the field name; TypeName its declared type
type Kind uint8

const (
	KindUnknown Kind = iota
	KindFile
	KindClassDecl
	KindMethodDecl
	KindFieldDecl
	KindVarDecl
	KindParamDecl
	KindBlock
	KindIf
	KindTernary
	KindReturn
	KindExprStmt
	KindInvocation
	KindConstructorCall
	KindIdentifier
	KindPropertyAccess
	KindAssignment
	KindLiteral
	KindLambda
	KindArgument
	KindAnnotation

	kindCount // keep last
)

var kindNames = [...]string{
	KindUnknown:         "unknown",
	KindFile:            "file",
	KindClassDecl:       "class_decl",
	KindMethodDecl:      "method_decl",
	KindFieldDecl:       "field_decl",
	KindVarDecl:         "var_decl",
	KindParamDecl:       "param_decl",
	KindBlock:           "block",
	KindIf:              "if",
	KindTernary:         "ternary",
	KindReturn:          "return",
	KindExprStmt:        "expr_stmt",
	KindInvocation:      "invocation",
	KindConstructorCall: "constructor_call",
	KindIdentifier:      "identifier",
	KindPropertyAccess:  "property_access",
	KindAssignment:      "assignment",
	KindLiteral:         "literal",
	KindLambda:          "lambda",
	KindArgument:        "argument",
	KindAnnotation:      "annotation",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Valid reports whether k is a known kind value.
func (k Kind) Valid() bool {
	return k < kindCount
}

// IsDeclBoundary reports whether k terminates ancestor walks by default:
// heuristics must not leak across method or lambda boundaries.
func (k Kind) IsDeclBoundary() bool {
	return k == KindMethodDecl || k == KindLambda
}
