package entity

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jhoicas/garment-ledger/internal/domain"
)

// EntityKind discrimina el tipo concreto de ítem con stock.
type EntityKind string

// Tipos de ítem registrados en el libro.
const (
	KindFabric    EntityKind = "fabric"
	KindAccessory EntityKind = "accessory"
	KindPrinted   EntityKind = "printed"
)

// Kinds lista los tipos en el orden global de bloqueo.
var Kinds = []EntityKind{KindAccessory, KindFabric, KindPrinted}

// ParseEntityKind normaliza el discriminador recibido desde el exterior.
func ParseEntityKind(s string) (EntityKind, error) {
	k := EntityKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindFabric, KindAccessory, KindPrinted:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownEntityKind, s)
}

// Reference apunta a un ítem con stock sin conocer su tipo concreto en compilación.
type Reference struct {
	Kind EntityKind
	ID   int64
}

// Ref construye una referencia.
func Ref(kind EntityKind, id int64) Reference {
	return Reference{Kind: kind, ID: id}
}

func (r Reference) String() string {
	return fmt.Sprintf("%s#%d", r.Kind, r.ID)
}

// Less define el orden total (kind, id) usado para adquirir bloqueos.
func (r Reference) Less(o Reference) bool {
	if r.Kind != o.Kind {
		return r.Kind < o.Kind
	}
	return r.ID < o.ID
}

// SortReferences ordena in-place por (kind, id).
func SortReferences(refs []Reference) {
	sort.Slice(refs, func(i, j int) bool { return refs[i].Less(refs[j]) })
}
