// Package reflector names message types for handler dispatch and caches the
// result so the dispatch path never re-derives a name.
package reflector

import (
	"reflect"
	"sync"
)

// maxCacheSize bounds the cache. A device has a fixed set of message types,
// so the bound only matters for misbehaving callers.
const maxCacheSize = 512

var (
	muCache sync.RWMutex
	cache   = make(map[reflect.Type]MessageType)
)

// MessageType identifies a message by its exact Go type. Pointer and value
// forms of the same struct are distinct message types.
type MessageType struct {
	Name string       // "pkg/path.TypeName", prefixed with "*" for pointers
	Type reflect.Type // exact dynamic type, used as dispatch key
}

func (m MessageType) String() string { return m.Name }

// Of returns the MessageType of the dynamic type of x.
func Of(x any) MessageType {
	return ForType(reflect.TypeOf(x))
}

// For returns the MessageType of T.
func For[T any]() MessageType {
	return ForType(reflect.TypeFor[T]())
}

// ForType returns the MessageType for t. Safe for concurrent use.
func ForType(t reflect.Type) MessageType {
	if t == nil {
		return MessageType{Name: "<nil>"}
	}

	muCache.RLock()
	mt, ok := cache[t]
	muCache.RUnlock()
	if ok {
		return mt
	}

	mt = MessageType{Name: nameOf(t), Type: t}

	muCache.Lock()
	if existing, ok := cache[t]; ok {
		muCache.Unlock()
		return existing
	}
	if len(cache) >= maxCacheSize {
		cache = make(map[reflect.Type]MessageType)
	}
	cache[t] = mt
	muCache.Unlock()

	return mt
}

func nameOf(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		return "*" + nameOf(t.Elem())
	}
	if t.Name() == "" {
		return t.String()
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}
