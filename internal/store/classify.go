package store

// Op names a Store operation for error classification.
type Op string

const (
	OpListAll     Op = "list_all"
	OpGetList     Op = "get_list"
	OpItemsAll    Op = "items_all"
	OpGetItem     Op = "get_item"
	OpItemsOfList Op = "items_of_list"
	OpCreateList  Op = "create_list"
	OpRenameList  Op = "rename_list"
	OpRemoveList  Op = "remove_list"
	OpCreateItem  Op = "create_item"
	OpEditItem    Op = "edit_item"
	OpRemoveItem  Op = "remove_item"
)

// Ops lists every classified operation.
var Ops = []Op{
	OpListAll, OpGetList, OpItemsAll, OpGetItem, OpItemsOfList,
	OpCreateList, OpRenameList, OpRemoveList,
	OpCreateItem, OpEditItem, OpRemoveItem,
}

// Fault is a driver independent reduction of a database error.
type Fault int

const (
	// FaultOther is any failure not listed below.
	FaultOther Fault = iota
	// FaultUnique is a UNIQUE constraint violation.
	FaultUnique
	// FaultForeignKey is a FOREIGN KEY constraint violation.
	FaultForeignKey
	// FaultNotFound is a lookup or mutation that matched no row.
	FaultNotFound
)

func (f Fault) String() string {
	switch f {
	case FaultUnique:
		return "unique"
	case FaultForeignKey:
		return "foreign_key"
	case FaultNotFound:
		return "not_found"
	}
	return "other"
}

// classification maps (operation, fault) to an error kind. Anything absent
// from the table is an infrastructure failure.
//
// A unique violation on rename is reported as a duplicate name: the new name
// is held to the same rule as a created one.
var classification = map[Op]map[Fault]Kind{
	OpGetList:     {FaultNotFound: KindNoSuchList},
	OpItemsOfList: {FaultNotFound: KindNoSuchList},
	OpGetItem:     {FaultNotFound: KindNoSuchItem},
	OpCreateList:  {FaultUnique: KindDuplicateName},
	OpRenameList:  {FaultNotFound: KindNoSuchList, FaultUnique: KindDuplicateName},
	OpRemoveList:  {FaultNotFound: KindNoSuchList},
	OpCreateItem:  {FaultForeignKey: KindNoSuchList},
	OpEditItem:    {FaultNotFound: KindNoSuchItem},
	OpRemoveItem:  {FaultNotFound: KindNoSuchItem},
}

// Classify returns the error kind for a fault raised by op.
func Classify(op Op, fault Fault) Kind {
	if kind, ok := classification[op][fault]; ok {
		return kind
	}
	return KindInfrastructure
}

// subject is what an operation referenced, used to fill in the Error.
type subject struct {
	id   int64
	name string
}

// fail classifies err raised by op. Returns nil for a nil err.
func (s *Store) fail(op Op, subj subject, err error) error {
	if err == nil {
		return nil
	}
	kind := Classify(op, s.dialect.fault(err))
	e := &Error{Kind: kind, Op: op, Err: err}
	switch kind {
	case KindDuplicateName:
		e.Name = subj.name
	case KindNoSuchList, KindNoSuchItem:
		e.ID = subj.id
	default:
		e.ID = subj.id
		e.Name = subj.name
	}
	return e
}
