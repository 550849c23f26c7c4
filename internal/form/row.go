package form

import "strconv"

// LegacyUnsavedThreshold separates client timestamp ids from server ids in
// rows that predate RowID.
const LegacyUnsavedThreshold = 1_000_000_000

// RowID tells a row that only exists locally from one the server stored.
type RowID struct {
	value int64
	saved bool
}

// Unsaved is a row created on the client; clientID only needs to be unique
// within the form.
func Unsaved(clientID int64) RowID { return RowID{value: clientID} }

// Saved is a row persisted under serverID.
func Saved(serverID int64) RowID { return RowID{value: serverID, saved: true} }

func (id RowID) IsSaved() bool { return id.saved }

// ServerID is the persisted id, 0 for unsaved rows.
func (id RowID) ServerID() int64 {
	if !id.saved {
		return 0
	}
	return id.value
}

// Key is unique among the rows of one form.
func (id RowID) Key() string {
	if id.saved {
		return "s" + strconv.FormatInt(id.value, 10)
	}
	return "c" + strconv.FormatInt(id.value, 10)
}

func (id RowID) String() string {
	if id.saved {
		return "saved:" + strconv.FormatInt(id.value, 10)
	}
	return "unsaved:" + strconv.FormatInt(id.value, 10)
}

// ClassifyLegacyID converts an untyped row id: values above
// LegacyUnsavedThreshold were minted from Unix milliseconds and are unsaved.
func ClassifyLegacyID(id int64) RowID {
	if id > LegacyUnsavedThreshold || id <= 0 {
		return Unsaved(id)
	}
	return Saved(id)
}
