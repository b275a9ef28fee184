package injector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
)

// In is a marker type that should be embedded in structs to indicate
// they are parameter objects. Each exported field is an input of the
// constructor with a name: the `name:"..."` tag, or the field name.
//
// For each field, in order of precedence:
//   - a fixed parameter with the field's name is assigned
//   - the id in the `service:"..."` tag, or the TypeID of the field type if
//     that id is registered, is resolved
//   - otherwise the field keeps its zero value, unless tagged
//     `optional:"false"`
//
// Example:
//
//	type ReportParams struct {
//	    injector.In
//
//	    Store  Store
//	    Clock  Clock   `service:"clock.utc"`
//	    Prefix string  `name:"prefix"`
//	}
type In struct{}

var (
	inType      = reflect.TypeOf(In{})
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
)

// constructorInfo holds analyzed constructor metadata
type constructorInfo struct {
	fn       reflect.Value
	fnType   reflect.Type
	params   []paramInfo
	result   reflect.Type
	hasError bool
}

// paramInfo describes a constructor parameter
type paramInfo struct {
	typ       reflect.Type
	index     int
	isContext bool
	isIn      bool
	inFields  []fieldInfo
}

// fieldInfo describes one input of an In struct
type fieldInfo struct {
	typ      reflect.Type
	name     string    // From `name:"..."` tag, or the field name
	service  ServiceID // From `service:"..."` tag, empty for type-based lookup
	optional bool      // false only with `optional:"false"`
	index    int
}

// analyzeConstructor inspects a constructor function and extracts its inputs
// and result for automatic resolution.
func analyzeConstructor(constructor any) (*constructorInfo, error) {
	if constructor == nil {
		return nil, errors.New("constructor cannot be nil")
	}

	fnValue := reflect.ValueOf(constructor)
	fnType := fnValue.Type()

	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %T", constructor)
	}

	if fnValue.IsNil() {
		return nil, errors.New("constructor cannot be nil")
	}

	if fnType.IsVariadic() {
		return nil, errors.New("variadic constructors are not supported")
	}

	info := &constructorInfo{
		fn:     fnValue,
		fnType: fnType,
	}

	for i := 0; i < fnType.NumIn(); i++ {
		param, err := analyzeParam(fnType.In(i), i)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}

		info.params = append(info.params, param)
	}

	switch fnType.NumOut() {
	case 1:
		if fnType.Out(0) == errorType {
			return nil, errors.New("constructor must return a non-error value")
		}
	case 2:
		if fnType.Out(1) != errorType {
			return nil, errors.New("second return value must be error")
		}

		info.hasError = true
	default:
		return nil, fmt.Errorf("constructor must return (T) or (T, error), got %d values", fnType.NumOut())
	}

	info.result = fnType.Out(0)

	return info, nil
}

// analyzeParam analyzes a single parameter type
func analyzeParam(t reflect.Type, index int) (paramInfo, error) {
	param := paramInfo{
		typ:   t,
		index: index,
	}

	if t == contextType {
		param.isContext = true

		return param, nil
	}

	if isInStruct(t) {
		param.isIn = true

		fields, err := expandInStruct(t)
		if err != nil {
			return param, err
		}

		param.inFields = fields
	}

	return param, nil
}

// isInStruct checks if a type embeds injector.In
func isInStruct(t reflect.Type) bool {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return false
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous && field.Type == inType {
			return true
		}
		// Check embedded structs recursively
		if field.Anonymous && isInStruct(field.Type) {
			return true
		}
	}

	return false
}

// expandInStruct expands an In struct into its inputs
func expandInStruct(t reflect.Type) ([]fieldInfo, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	var fields []fieldInfo

	seen := make(map[string]string)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		// Skip the embedded In marker
		if field.Anonymous && (field.Type == inType || isInStruct(field.Type)) {
			continue
		}

		if !field.IsExported() {
			continue
		}

		f := fieldInfo{
			typ:      field.Type,
			name:     field.Name,
			optional: true,
			index:    i,
		}

		if tag := field.Tag.Get("name"); tag != "" {
			f.name = tag
		}

		if tag := field.Tag.Get("service"); tag != "" {
			f.service = ServiceID(tag)
		}

		if tag := field.Tag.Get("optional"); strings.EqualFold(tag, "false") {
			f.optional = false
		}

		if prev, dup := seen[f.name]; dup {
			return nil, fmt.Errorf("fields %s and %s share input name %q", prev, field.Name, f.name)
		}

		seen[f.name] = field.Name
		fields = append(fields, f)
	}

	return fields, nil
}

// acceptsParam reports whether some In field is named name.
func (info *constructorInfo) acceptsParam(name string) bool {
	for _, p := range info.params {
		for _, f := range p.inFields {
			if f.name == name {
				return true
			}
		}
	}

	return false
}

// dependencies lists the ids the constructor may resolve. Fields that are
// satisfied by fixed parameters are left out.
func (info *constructorInfo) dependencies(reg *registration) []ServiceID {
	var ids []ServiceID

	pos := 0

	for _, p := range info.params {
		switch {
		case p.isContext:
		case p.isIn:
			for _, f := range p.inFields {
				if _, fixed := reg.params[f.name]; fixed {
					continue
				}

				ids = append(ids, f.serviceID())
			}
		default:
			ids = append(ids, positionalID(p, reg.deps, pos))
			pos++
		}
	}

	// Declared ids beyond the positional parameters still order the graph
	if pos < len(reg.deps) {
		ids = append(ids, reg.deps[pos:]...)
	}

	return ids
}

// call resolves the constructor inputs and invokes it.
func (info *constructorInfo) call(ctx context.Context, c *Container, reg *registration) (any, error) {
	for name := range reg.params {
		if !info.acceptsParam(name) {
			return nil, UnknownParamError(reg.id, name)
		}
	}

	args := make([]reflect.Value, len(info.params))
	pos := 0

	for i, p := range info.params {
		switch {
		case p.isContext:
			args[i] = reflect.ValueOf(&ctx).Elem()
		case p.isIn:
			v, err := info.fillIn(ctx, c, reg, p)
			if err != nil {
				return nil, err
			}

			args[i] = v
		default:
			id := positionalID(p, reg.deps, pos)
			pos++

			resolved, err := c.Get(ctx, id)
			if err != nil {
				return nil, err
			}

			v, ok := coerce(resolved, p.typ)
			if !ok {
				return nil, TypeMismatchError(id, p.typ.String(), resolved)
			}

			args[i] = v
		}
	}

	results := info.fn.Call(args)

	if info.hasError {
		if errResult := results[1]; !errResult.IsNil() {
			return nil, errResult.Interface().(error)
		}
	}

	return results[0].Interface(), nil
}

// fillIn creates and populates an In struct.
func (info *constructorInfo) fillIn(ctx context.Context, c *Container, reg *registration, p paramInfo) (reflect.Value, error) {
	structType := p.typ
	isPtr := structType.Kind() == reflect.Ptr

	if isPtr {
		structType = structType.Elem()
	}

	structValue := reflect.New(structType)
	elem := structValue.Elem()

	for _, f := range p.inFields {
		if fixed, ok := reg.params[f.name]; ok {
			v, ok := coerce(fixed, f.typ)
			if !ok {
				return reflect.Value{}, TypeMismatchError(reg.id, f.typ.String(), fixed).
					WithContext("param", f.name)
			}

			elem.Field(f.index).Set(v)

			continue
		}

		id := f.serviceID()
		if f.service == "" && !c.Has(id) {
			if f.optional {
				continue
			}

			return reflect.Value{}, UnregisteredServiceError(id).WithContext("param", f.name)
		}

		resolved, err := c.Get(ctx, id)
		if err != nil {
			return reflect.Value{}, err
		}

		v, ok := coerce(resolved, f.typ)
		if !ok {
			return reflect.Value{}, TypeMismatchError(id, f.typ.String(), resolved)
		}

		elem.Field(f.index).Set(v)
	}

	if isPtr {
		return structValue, nil
	}

	return elem, nil
}

func (f fieldInfo) serviceID() ServiceID {
	if f.service != "" {
		return f.service
	}

	return typeID(f.typ)
}

// positionalID picks the id for the pos-th positional parameter.
func positionalID(p paramInfo, declared []ServiceID, pos int) ServiceID {
	if pos < len(declared) {
		return declared[pos]
	}

	return typeID(p.typ)
}

// coerce converts v to t. Assignable values pass through, nil becomes the
// zero value of nillable types, and numeric or string scalars are converted
// within their own kind family so that decoded configuration (int, float64)
// fits typed fields. Numbers that overflow t, lose their sign or lose a
// fraction are rejected.
func coerce(v any, t reflect.Type) (reflect.Value, bool) {
	if v == nil {
		if nillable(t) {
			return reflect.Zero(t), true
		}

		return reflect.Value{}, false
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, true
	}

	switch {
	case isNumeric(rv.Kind()) && isNumeric(t.Kind()):
		if !fitsNumeric(rv, t) {
			return reflect.Value{}, false
		}

		return rv.Convert(t), true
	case rv.Kind() == reflect.String && t.Kind() == reflect.String:
		return rv.Convert(t), true
	}

	return reflect.Value{}, false
}

// fitsNumeric reports whether the number v converts to t without changing
// its value.
func fitsNumeric(v reflect.Value, t reflect.Type) bool {
	target := reflect.Zero(t)

	switch {
	case isSigned(v.Kind()):
		n := v.Int()

		switch {
		case isSigned(t.Kind()):
			return !target.OverflowInt(n)
		case isUnsigned(t.Kind()):
			return n >= 0 && !target.OverflowUint(uint64(n))
		default:
			return !target.OverflowFloat(float64(n))
		}

	case isUnsigned(v.Kind()):
		n := v.Uint()

		switch {
		case isSigned(t.Kind()):
			return n <= math.MaxInt64 && !target.OverflowInt(int64(n))
		case isUnsigned(t.Kind()):
			return !target.OverflowUint(n)
		default:
			return !target.OverflowFloat(float64(n))
		}
	}

	f := v.Float()

	if t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64 {
		return !target.OverflowFloat(f)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return false
	}

	if isSigned(t.Kind()) {
		return f >= math.MinInt64 && f < math.MaxInt64 && !target.OverflowInt(int64(f))
	}

	return f >= 0 && f < math.MaxUint64 && !target.OverflowUint(uint64(f))
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}

func isNumeric(k reflect.Kind) bool {
	return isSigned(k) || isUnsigned(k) || k == reflect.Float32 || k == reflect.Float64
}

func isSigned(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	default:
		return false
	}
}

func isUnsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}
