package ws

import (
	"encoding/json"
	"errors"

	"github.com/Prsnt95/coup/internal/game"
	"github.com/Prsnt95/coup/internal/room"
)

// ---------- message envelope ----------

type Msg struct {
	T string          `json:"t"`           // type
	M json.RawMessage `json:"m,omitempty"` // payload
}

// client -> server
const (
	TypeCreateRoom = "create_room"
	TypeJoinRoom   = "join_room"
	TypeRejoin     = "rejoin"
	TypeLeaveRoom  = "leave_room"
	TypeStart      = "start"
)

// server -> client
const (
	TypeJoined = "joined"
	TypeState  = "state"
	TypeError  = "error"
)

type createRoomMsg struct {
	Name string `json:"name"`
}

type joinRoomMsg struct {
	Room string `json:"room"`
	Name string `json:"name"`
}

type rejoinMsg struct {
	Room  string `json:"room"`
	Token string `json:"token"`
}

// intentMsg carries every in-game move. A missing target means no target.
type intentMsg struct {
	Action    game.ActionKind `json:"action"`
	Target    *int            `json:"target"`
	Character game.Character  `json:"character"`
	Card      int             `json:"card"`
	Indices   []int           `json:"indices"`
}

func (m intentMsg) intent(t game.IntentType) game.Intent {
	target := game.NoSeat
	if m.Target != nil {
		target = *m.Target
	}
	return game.Intent{
		Type:      t,
		Action:    m.Action,
		Target:    target,
		Character: m.Character,
		Slot:      m.Card,
		Indices:   m.Indices,
	}
}

type JoinedMsg struct {
	Room  string `json:"room"`
	Seat  int    `json:"seat"`
	Token string `json:"token"`
}

type ErrorMsg struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// Transport-level error codes. Game rejections keep their own codes.
const (
	CodeBadMessage    = "BAD_MESSAGE"
	CodeRateLimited   = "RATE_LIMITED"
	CodeAlreadySeated = "ALREADY_SEATED"
	CodeNotSeated     = "NOT_SEATED"
	CodeRoomNotFound  = "ROOM_NOT_FOUND"
	CodeNotHost       = "NOT_HOST"
	CodeBadToken      = "BAD_TOKEN"
	CodeRoomBroken    = "ROOM_BROKEN"
	CodeInternal      = "INTERNAL"
)

func errorMsg(err error) ErrorMsg {
	var ge *game.Error
	if errors.As(err, &ge) {
		return ErrorMsg{Code: string(ge.Code), Message: ge.Message, Meta: ge.Metadata}
	}
	code := CodeInternal
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		code = CodeRoomNotFound
	case errors.Is(err, room.ErrNotHost):
		code = CodeNotHost
	case errors.Is(err, room.ErrBadToken):
		code = CodeBadToken
	case errors.Is(err, room.ErrNotSeated):
		code = CodeNotSeated
	case errors.Is(err, room.ErrRoomBroken):
		code = CodeRoomBroken
	}
	return ErrorMsg{Code: code, Message: err.Error()}
}

func encode(t string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Msg{T: t, M: body})
}
