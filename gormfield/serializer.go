// Package gormfield plugs fieldcrypt into GORM as a field serializer.
//
//	gormfield.Register(cipher)
//
//	type Note struct {
//	    ID    uint
//	    Body  string            `gorm:"type:text;serializer:encrypted"`
//	    Tags  []string          `gorm:"type:text;serializer:encrypted"`
//	    Extra map[string]any    `gorm:"type:text;serializer:encrypted"`
//	}
//
// Strings are stored as content envelopes, string slices as array envelopes
// and everything else as JSON envelopes. Reads use the safe decrypt path, so
// rows written before encryption load unchanged.
package gormfield

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/ai8future/fieldcrypt"
	"gorm.io/gorm/schema"
)

// Name is the serializer name used in struct tags.
const Name = "encrypted"

// Serializer implements schema.SerializerInterface.
type Serializer struct {
	cipher *fieldcrypt.Cipher
}

// New returns a Serializer backed by c.
func New(c *fieldcrypt.Cipher) *Serializer {
	return &Serializer{cipher: c}
}

// Register registers a Serializer for c under Name.
// GORM keeps serializers in a process-wide registry; the last call wins.
func Register(c *fieldcrypt.Cipher) {
	schema.RegisterSerializer(Name, New(c))
}

// Scan implements schema.SerializerInterface.
func (s *Serializer) Scan(ctx context.Context, field *schema.Field, dst reflect.Value, dbValue interface{}) error {
	fieldValue := reflect.New(field.FieldType)
	if dbValue != nil {
		s.decodeInto(fieldValue.Elem(), field.Name, dbValue)
	}
	field.ReflectValueOf(ctx, dst).Set(fieldValue.Elem())
	return nil
}

// decodeInto fills target from a stored value. A value that cannot be
// decoded into the field type leaves the zero value and is logged.
func (s *Serializer) decodeInto(target reflect.Value, fieldName string, dbValue interface{}) {
	if target.Kind() == reflect.Pointer {
		target.Set(reflect.New(target.Type().Elem()))
		target = target.Elem()
	}

	switch {
	case target.Kind() == reflect.String:
		target.SetString(s.cipher.SafeDecryptContent(dbValue))
	case target.Kind() == reflect.Slice && target.Type().Elem().Kind() == reflect.String:
		items := s.cipher.SafeDecryptArray(dbValue)
		out := reflect.MakeSlice(target.Type(), len(items), len(items))
		for i, item := range items {
			out.Index(i).SetString(item)
		}
		target.Set(out)
	default:
		generic := s.cipher.SafeDecryptJSON(dbValue)
		if generic == nil {
			return
		}
		b, err := json.Marshal(generic)
		if err == nil {
			err = json.Unmarshal(b, target.Addr().Interface())
		}
		if err != nil {
			target.Set(reflect.Zero(target.Type()))
			logger := s.cipher.Logger()
			logger.Warn().Err(err).Str("field", fieldName).Msg("decrypted value does not fit field type")
		}
	}
}

// Value implements schema.SerializerValuerInterface.
func (s *Serializer) Value(ctx context.Context, field *schema.Field, dst reflect.Value, fieldValue interface{}) (interface{}, error) {
	switch v := fieldValue.(type) {
	case nil:
		return nil, nil
	case string:
		return s.cipher.PrepareForStorage(v), nil
	case []string:
		return s.cipher.PrepareArrayForStorage(v).String(), nil
	}

	rv := reflect.ValueOf(fieldValue)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	switch {
	case rv.Kind() == reflect.String:
		return s.cipher.PrepareForStorage(rv.String()), nil
	case rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.String:
		items := make([]string, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).String()
		}
		return s.cipher.PrepareArrayForStorage(items).String(), nil
	}

	env, err := s.cipher.PrepareJSONForStorage(rv.Interface())
	if err != nil {
		return nil, err
	}
	return env.String(), nil
}
