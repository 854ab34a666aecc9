package users

import (
	"encoding/json"
	"strings"

	dbtypes "github.com/tripgather/tripgather-backend/pkg/db/types"
)

// Optional distinguishes an absent field from one explicitly set, including to null.
type Optional[T any] struct {
	Set   bool
	Value T
}

// Some marks v as present.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if strings.TrimSpace(string(data)) == "null" {
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// ProfilePatch only writes the fields marked Set.
type ProfilePatch struct {
	Name           Optional[string]        `json:"name"`
	Gender         Optional[*string]       `json:"gender"`
	Birthdate      Optional[*dbtypes.Date] `json:"birthdate"`
	ParadoxFlag    Optional[bool]          `json:"paradox_flag"`
	ProfilePicture Optional[*string]       `json:"profile_picture"`
}

// Columns maps the present fields onto user_profiles columns.
func (p ProfilePatch) Columns() map[string]any {
	cols := map[string]any{}
	if p.Name.Set {
		cols["name"] = strings.TrimSpace(p.Name.Value)
	}
	if p.Gender.Set {
		cols["gender"] = p.Gender.Value
	}
	if p.Birthdate.Set {
		cols["birthdate"] = p.Birthdate.Value
	}
	if p.ParadoxFlag.Set {
		cols["paradox_flag"] = p.ParadoxFlag.Value
	}
	if p.ProfilePicture.Set {
		cols["profile_picture"] = p.ProfilePicture.Value
	}
	return cols
}

func (p ProfilePatch) IsEmpty() bool {
	return len(p.Columns()) == 0
}
