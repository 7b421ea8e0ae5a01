// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package states

import (
	"encoding/json"
	"fmt"
)

// Output pairs a state with the reference of the version it is.
type Output struct {
	Ref   Ref
	State State
}

type jsonOutput struct {
	Ref   Ref             `json:"ref"`
	Type  string          `json:"type"`
	State json.RawMessage `json:"state"`
}

func (o *Output) MarshalJSON() ([]byte, error) {
	st, err := json.Marshal(o.State)
	if err != nil {
		return nil, err
	}
	return json.Marshal(jsonOutput{
		Ref:   o.Ref,
		Type:  o.State.Type().String(),
		State: st,
	})
}

func (o *Output) UnmarshalJSON(b []byte) error {
	var raw jsonOutput
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	var st State
	switch raw.Type {
	case CashType.String():
		st = &Cash{}
	case DebtType.String():
		st = &Debt{}
	default:
		return fmt.Errorf("%w: %q", errUnknownStateType, raw.Type)
	}
	if err := json.Unmarshal(raw.State, st); err != nil {
		return err
	}

	o.Ref = raw.Ref
	o.State = st
	return nil
}

func (o *Output) String() string {
	return fmt.Sprintf("%s@%s", o.State, o.Ref)
}
