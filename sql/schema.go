package sql

import (
	"fmt"
)

type FieldInfo struct {
	Type   int
	Length int // maximum length of a varchar field, 0 for int
}

// Schema is the ordered field list of a table or of the output of a plan.
// The order only matters for display, lookup is by name.
type Schema struct {
	fields []string
	info   map[string]FieldInfo
}

func NewSchema() *Schema {
	return &Schema{
		info: make(map[string]FieldInfo),
	}
}

func (self *Schema) AddField(name string, ty int, length int) error {
	if _, ok := self.info[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateField, name)
	}
	self.fields = append(self.fields, name)
	self.info[name] = FieldInfo{
		Type:   ty,
		Length: length,
	}
	return nil
}

func (self *Schema) AddIntField(name string) error {
	return self.AddField(name, TypeInt, 0)
}

func (self *Schema) AddStringField(name string, length int) error {
	return self.AddField(name, TypeVarchar, length)
}

// Add copies the definition of field name from that schema
func (self *Schema) Add(name string, that *Schema) error {
	info, ok := that.Info(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrFieldNotFound, name)
	}
	return self.AddField(name, info.Type, info.Length)
}

// AddAll copies every field of that schema, nothing is added when one of
// them is already present
func (self *Schema) AddAll(that *Schema) error {
	for _, f := range that.fields {
		if self.HasField(f) {
			return fmt.Errorf("%w: %s", ErrDuplicateField, f)
		}
	}
	for _, f := range that.fields {
		if err := self.Add(f, that); err != nil {
			return err
		}
	}
	return nil
}

func (self *Schema) Fields() []string {
	out := make([]string, len(self.fields))
	copy(out, self.fields)
	return out
}

func (self *Schema) HasField(name string) bool {
	_, ok := self.info[name]
	return ok
}

func (self *Schema) Info(name string) (FieldInfo, bool) {
	info, ok := self.info[name]
	return info, ok
}

func (self *Schema) Type(name string) int {
	return self.info[name].Type
}

func (self *Schema) Length(name string) int {
	return self.info[name].Length
}

// String renders the schema as a field definition list, same syntax as the
// create table statement
func (self *Schema) String() string {
	buf := make([]byte, 0, 16*len(self.fields))
	for idx, f := range self.fields {
		if idx > 0 {
			buf = append(buf, ", "...)
		}
		info := self.info[f]
		if info.Type == TypeInt {
			buf = append(buf, fmt.Sprintf("%s int", f)...)
		} else {
			buf = append(buf, fmt.Sprintf("%s varchar(%d)", f, info.Length)...)
		}
	}
	return string(buf)
}
