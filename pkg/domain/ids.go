// Package domain holds identifier primitives shared across circulation
// packages. Each entity gets a distinct ID type so an item ID can never be
// passed where a member ID is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "circulation/pkg/domain-errors"
)

type (
	ItemID   uuid.UUID
	MemberID uuid.UUID
	LoanID   uuid.UUID
)

func NewLoanID() LoanID { return LoanID(uuid.New()) }

func (id ItemID) String() string   { return uuid.UUID(id).String() }
func (id MemberID) String() string { return uuid.UUID(id).String() }
func (id LoanID) String() string   { return uuid.UUID(id).String() }

func (id ItemID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id MemberID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id LoanID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets typed IDs serialize as plain UUID strings in JSON.
func (id ItemID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id MemberID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id LoanID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }

func (id *ItemID) UnmarshalText(b []byte) error {
	parsed, err := ParseItemID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *MemberID) UnmarshalText(b []byte) error {
	parsed, err := ParseMemberID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *LoanID) UnmarshalText(b []byte) error {
	parsed, err := ParseLoanID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func ParseItemID(s string) (ItemID, error) {
	u, err := parseUUID(s, "item")
	return ItemID(u), err
}

func ParseMemberID(s string) (MemberID, error) {
	u, err := parseUUID(s, "member")
	return MemberID(u), err
}

func ParseLoanID(s string) (LoanID, error) {
	u, err := parseUUID(s, "loan")
	return LoanID(u), err
}

// parseUUID is the single trust-boundary check every ID type goes through.
func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id must not be nil")
	}
	return u, nil
}
