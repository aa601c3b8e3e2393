package xedit

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/net/html"
)

// XML NameStartChar and NameChar ranges, without the colon.
const (
	nameStartChars = `A-Z_a-z\x{C0}-\x{D6}\x{D8}-\x{F6}\x{F8}-\x{2FF}\x{370}-\x{37D}` +
		`\x{37F}-\x{1FFF}\x{200C}-\x{200D}\x{2070}-\x{218F}\x{2C00}-\x{2FEF}` +
		`\x{3001}-\x{D7FF}\x{F900}-\x{FDCF}\x{FDF0}-\x{FFFD}\x{10000}-\x{EFFFF}`
	nameChars = nameStartChars + `\-.0-9\x{B7}\x{300}-\x{36F}\x{203F}-\x{2040}`
	ncName    = `[` + nameStartChars + `][` + nameChars + `]*`
)

var (
	xmlName = regexp.MustCompile(`^[:` + nameStartChars + `][:` + nameChars + `]*$`)
	// nsName is an optionally prefixed name. Names starting with any case
	// variant of "xml" are reserved and rejected separately.
	nsName = regexp.MustCompile(`^` + ncName + `(:` + ncName + `)?$`)
)

const mintedPrefix = "ens"

func validName(name string) bool {
	return xmlName.MatchString(name)
}

func validNSName(name string) bool {
	return nsName.MatchString(name) && !strings.HasPrefix(strings.ToLower(name), "xml")
}

func applySetAttributes(e SetAttributes) (Edit, error) {
	el := e.Element
	if el.Type != html.ElementNode {
		return Complex{}, fmt.Errorf("%w: attributes on node type %d", ErrHierarchy, el.Type)
	}

	var errs []error
	undo := SetAttributes{Element: el}

	prior := capture(e.Attributes, nil, func(name string) (string, bool) {
		return getAttr(el, name)
	})
	seen := mapset.NewThreadUnsafeSet[string]()
	for _, a := range e.Attributes {
		if !validName(a.Name) {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidName, a.Name))
			continue
		}
		if a.Value == nil {
			removeAttr(el, a.Name)
		} else {
			setAttr(el, a.Name, *a.Value)
		}
		if seen.Add(a.Name) {
			undo.Attributes = append(undo.Attributes, AttrValue{Name: a.Name, Value: prior[a.Name]})
		}
	}

	var minted []string
	for _, group := range e.AttributesNS {
		ns := group.Namespace
		prior := capture(group.Attributes, validNSName, func(name string) (string, bool) {
			_, local := splitName(name)
			return getAttrNS(el, ns, local)
		})

		undoGroup := NSAttributes{Namespace: ns}
		seen := mapset.NewThreadUnsafeSet[string]()
		for _, a := range group.Attributes {
			if !validNSName(a.Name) {
				errs = append(errs, fmt.Errorf("%w: %q in namespace %q", ErrInvalidName, a.Name, ns))
				continue
			}
			declared, err := setNSAttribute(el, ns, a)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			minted = append(minted, declared...)
			if seen.Add(a.Name) {
				undoGroup.Attributes = append(undoGroup.Attributes, AttrValue{Name: a.Name, Value: prior[a.Name]})
			}
		}
		undo.AttributesNS = append(undo.AttributesNS, undoGroup)
	}

	// Declarations go last so they outlive the attributes that use them.
	if len(minted) > 0 {
		decls := NSAttributes{Namespace: XMLNSNamespace}
		for _, prefix := range minted {
			decls.Attributes = append(decls.Attributes, Unset(prefix))
		}
		undo.AttributesNS = append(undo.AttributesNS, decls)
	}

	return undo, errors.Join(errs...)
}

// capture records the current value of every named attribute, walking attrs
// in reverse so that the earliest of duplicate names wins. Names rejected by
// valid are not captured.
func capture(attrs []AttrValue, valid func(string) bool, get func(string) (string, bool)) map[string]*string {
	prior := make(map[string]*string, len(attrs))
	for i := len(attrs) - 1; i >= 0; i-- {
		name := attrs[i].Name
		if valid != nil && !valid(name) {
			continue
		}
		if v, ok := get(name); ok {
			prior[name] = Val(v)
		} else {
			prior[name] = nil
		}
	}
	return prior
}

// setNSAttribute sets or removes one namespaced attribute and returns the
// prefixes it had to declare on el.
func setNSAttribute(el *html.Node, ns string, a AttrValue) ([]string, error) {
	prefix, local := splitName(a.Name)
	if a.Value == nil {
		removeAttrNS(el, ns, local)
		return nil, nil
	}
	if findAttrNS(el, ns, local) >= 0 {
		setAttrNS(el, ns, "", local, *a.Value)
		return nil, nil
	}
	if ns == "" {
		if prefix != "" {
			return nil, fmt.Errorf("%w: prefix %q without a namespace", ErrNamespace, prefix)
		}
		setAttrNS(el, "", "", local, *a.Value)
		return nil, nil
	}

	var declared []string
	if prefix == "" {
		prefix = LookupPrefix(el, ns)
		if prefix == "" {
			prefix = uniquePrefix(el, ns)
			declare(el, prefix, ns)
			declared = append(declared, prefix)
		}
	} else {
		switch bound := LookupNamespaceURI(el, prefix); bound {
		case ns:
		case "":
			declare(el, prefix, ns)
			declared = append(declared, prefix)
		default:
			return nil, fmt.Errorf("%w: prefix %q is bound to %q, not %q", ErrNamespace, prefix, bound, ns)
		}
	}
	setAttrNS(el, ns, prefix, local, *a.Value)
	return declared, nil
}

func declare(el *html.Node, prefix, ns string) {
	setAttrNS(el, XMLNSNamespace, "xmlns", prefix, ns)
}

// uniquePrefix returns the first of ens1, ens2, ... that is neither bound to
// another namespace in scope of el nor carried by one of el's attributes in
// another namespace.
func uniquePrefix(el *html.Node, ns string) string {
	taken := mapset.NewThreadUnsafeSet[string]()
	for _, a := range el.Attr {
		prefix, _ := splitName(qualifiedName(a))
		if prefix != "" && prefix != "xmlns" && attrNamespace(el, a) != ns {
			taken.Add(prefix)
		}
	}
	for i := 1; ; i++ {
		prefix := fmt.Sprintf("%s%d", mintedPrefix, i)
		if bound := LookupNamespaceURI(el, prefix); bound != "" && bound != ns {
			continue
		}
		if taken.Contains(prefix) {
			continue
		}
		return prefix
	}
}
