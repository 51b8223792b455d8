package component

import (
	"slices"
	"strings"
)

// Type is a possibly generic class reference.
type Type struct {
	Class InternalName
	Args  []Type
}

// NewType creates a Type from a class name in either slash or dot form.
func NewType(class string, args ...Type) Type {
	return Type{Class: InternalName(strings.ReplaceAll(class, ".", "/")), Args: args}
}

func (t Type) String() string {
	if len(t.Args) == 0 {
		return string(t.Class)
	}
	args := make([]string, len(t.Args))
	for i, arg := range t.Args {
		args[i] = arg.String()
	}
	return string(t.Class) + "<" + strings.Join(args, ",") + ">"
}

// Descriptor returns the JVM-style descriptor, eg. "Ljava/util/List<Lcom/example/Plugin;>;".
func (t Type) Descriptor() string {
	var b strings.Builder
	b.WriteByte('L')
	b.WriteString(string(t.Class))
	if len(t.Args) > 0 {
		b.WriteByte('<')
		for _, arg := range t.Args {
			b.WriteString(arg.Descriptor())
		}
		b.WriteByte('>')
	}
	b.WriteByte(';')
	return b.String()
}

func (t Type) Equal(o Type) bool {
	return t.Class == o.Class && slices.EqualFunc(t.Args, o.Args, Type.Equal)
}

// IsZero returns true if the type is unset.
func (t Type) IsZero() bool { return t.Class == "" }

var collectionClasses = map[InternalName]bool{
	"java/util/List":                 true,
	"java/util/Set":                  true,
	"java/util/Collection":           true,
	"kotlin/collections/List":        true,
	"kotlin/collections/Set":         true,
	"kotlin/collections/Collection":  true,
	"kotlin/collections/MutableList": true,
	"kotlin/collections/MutableSet":  true,
}

var factoryClasses = map[InternalName]bool{
	"kotlin/jvm/functions/Function0": true,
	"knit/Factory":                   true,
}

// IsCollection returns true if the type is a single-argument collection eligible for multi-binding.
func (t Type) IsCollection() bool { return collectionClasses[t.Class] && len(t.Args) == 1 }

// IsFactory returns true if the type is a zero-argument factory of its single type argument.
func (t Type) IsFactory() bool { return factoryClasses[t.Class] && len(t.Args) == 1 }

// Element returns the single type argument of a collection or factory type.
func (t Type) Element() Type {
	if len(t.Args) != 1 {
		return Type{}
	}
	return t.Args[0]
}
