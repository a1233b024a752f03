package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Action names a button-tap action. The wire form of a tap is a small
// colon-separated string ("kick_member:12:34"); Callback is its decoded
// shape. Encoding and parsing live here so no other package touches the
// string format.
type Action string

const (
	ActionMainMenu    Action = "main_menu"
	ActionMyParties   Action = "my_parties"
	ActionCreateParty Action = "create_party"
	ActionCancel      Action = "cancel"

	ActionOpenParty          Action = "open_party"
	ActionInviteLink         Action = "invite_link"
	ActionLeaveParty         Action = "leave_party"
	ActionConfirmLeave       Action = "confirm_leave"
	ActionCancelParty        Action = "cancel_party"
	ActionConfirmCancelParty Action = "confirm_cancel_party"

	ActionViewFillings   Action = "view_fillings"
	ActionAddFilling     Action = "add_filling"
	ActionEditFillings   Action = "edit_fillings"
	ActionEditOneFilling Action = "edit_one_filling"
	ActionRenameFilling  Action = "rename_filling"
	ActionRemoveFilling  Action = "remove_filling"

	ActionMembers      Action = "members"
	ActionSearchMember Action = "search_member"
	ActionKickMember   Action = "kick_member"
	ActionConfirmKick  Action = "confirm_kick"
	ActionPromoteAdmin Action = "promote_admin"
	ActionDemoteAdmin  Action = "demote_admin"

	ActionPartyInfo     Action = "party_info"
	ActionEditPartyInfo Action = "edit_party_info"
	ActionSetInfo       Action = "set_info"
	ActionClearInfo     Action = "clear_info"
	ActionCalNav        Action = "cal_nav"
	ActionCalPick       Action = "cal_pick"
	ActionTimePick      Action = "time_pick"
	ActionTimePage      Action = "time_page"

	ActionRateParty     Action = "rate_party"
	ActionConfirmRate   Action = "confirm_send_ratings"
	ActionRate          Action = "rate"
	ActionDismissRating Action = "dismiss_rating"
	ActionViewRatings   Action = "view_ratings"

	ActionBroadcast Action = "broadcast"

	// ActionNoop marks inert keyboard cells (calendar padding, labels).
	ActionNoop Action = "noop"
)

// Callback is the decoded payload of an inline-keyboard tap.
//
// Which fields are meaningful depends on Action: PartyID for party-scoped
// actions, TargetID for the member or filling (or star count, for
// ActionRate) the action applies to, Field for info-field actions, and Arg
// for picker cursors ("2026-09"), picked dates ("2026-09-12"), picked times
// ("18:30") and page numbers.
type Callback struct {
	Action   Action
	PartyID  int64
	TargetID int64
	Field    InfoField
	Arg      string
}

// callbackShape describes the encoded segments that follow the action name.
type callbackShape int

const (
	shapeBare callbackShape = iota
	shapeParty
	shapeTarget       // a filling id on its own
	shapePartyTarget  // party id + member id (or star count)
	shapePartyField   // party id + info field
	shapePartyArg     // party id + free-form argument
)

var callbackShapes = map[Action]callbackShape{
	ActionMainMenu:    shapeBare,
	ActionMyParties:   shapeBare,
	ActionCreateParty: shapeBare,
	ActionCancel:      shapeBare,
	ActionNoop:        shapeBare,

	ActionOpenParty:          shapeParty,
	ActionInviteLink:         shapeParty,
	ActionLeaveParty:         shapeParty,
	ActionConfirmLeave:       shapeParty,
	ActionCancelParty:        shapeParty,
	ActionConfirmCancelParty: shapeParty,
	ActionViewFillings:       shapeParty,
	ActionAddFilling:         shapeParty,
	ActionEditFillings:       shapeParty,
	ActionMembers:            shapeParty,
	ActionSearchMember:       shapeParty,
	ActionPartyInfo:          shapeParty,
	ActionEditPartyInfo:      shapeParty,
	ActionRateParty:          shapeParty,
	ActionConfirmRate:        shapeParty,
	ActionDismissRating:      shapeParty,
	ActionViewRatings:        shapeParty,
	ActionBroadcast:          shapeParty,

	ActionEditOneFilling: shapeTarget,
	ActionRenameFilling:  shapeTarget,
	ActionRemoveFilling:  shapeTarget,

	ActionKickMember:   shapePartyTarget,
	ActionConfirmKick:  shapePartyTarget,
	ActionPromoteAdmin: shapePartyTarget,
	ActionDemoteAdmin:  shapePartyTarget,
	ActionRate:         shapePartyTarget,

	ActionSetInfo:   shapePartyField,
	ActionClearInfo: shapePartyField,

	ActionCalNav:   shapePartyArg,
	ActionCalPick:  shapePartyArg,
	ActionTimePick: shapePartyArg,
	ActionTimePage: shapePartyArg,
}

// Encode renders the callback into its wire form.
func (c Callback) Encode() string {
	switch callbackShapes[c.Action] {
	case shapeParty:
		return fmt.Sprintf("%s:%d", c.Action, c.PartyID)
	case shapeTarget:
		return fmt.Sprintf("%s:%d", c.Action, c.TargetID)
	case shapePartyTarget:
		return fmt.Sprintf("%s:%d:%d", c.Action, c.PartyID, c.TargetID)
	case shapePartyField:
		return fmt.Sprintf("%s:%d:%s", c.Action, c.PartyID, c.Field)
	case shapePartyArg:
		return fmt.Sprintf("%s:%d:%s", c.Action, c.PartyID, c.Arg)
	default:
		return string(c.Action)
	}
}

// ParseCallback decodes the wire form of a button tap.
func ParseCallback(data string) (Callback, error) {
	parts := strings.Split(data, ":")
	action := Action(parts[0])
	shape, known := callbackShapes[action]
	if !known {
		return Callback{}, fmt.Errorf("unknown callback action %q", parts[0])
	}

	c := Callback{Action: action}
	want := map[callbackShape]int{
		shapeBare: 1, shapeParty: 2, shapeTarget: 2,
		shapePartyTarget: 3, shapePartyField: 3, shapePartyArg: 3,
	}[shape]
	// Times contain colons ("time_pick:7:18:30"), so the arg may itself
	// have been split.
	if shape == shapePartyArg {
		if len(parts) < want {
			return Callback{}, fmt.Errorf("callback %q: expected at least %d segments, got %d", data, want, len(parts))
		}
	} else if len(parts) != want {
		return Callback{}, fmt.Errorf("callback %q: expected %d segments, got %d", data, want, len(parts))
	}

	parseID := func(s string) (int64, error) {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("callback %q: bad numeric segment %q", data, s)
		}
		return id, nil
	}

	var err error
	switch shape {
	case shapeParty:
		c.PartyID, err = parseID(parts[1])
	case shapeTarget:
		c.TargetID, err = parseID(parts[1])
	case shapePartyTarget:
		if c.PartyID, err = parseID(parts[1]); err == nil {
			c.TargetID, err = parseID(parts[2])
		}
	case shapePartyField:
		if c.PartyID, err = parseID(parts[1]); err == nil {
			c.Field = InfoField(parts[2])
			if !c.Field.Valid() {
				err = fmt.Errorf("callback %q: invalid info field %q", data, parts[2])
			}
		}
	case shapePartyArg:
		if c.PartyID, err = parseID(parts[1]); err == nil {
			c.Arg = strings.Join(parts[2:], ":")
		}
	}
	if err != nil {
		return Callback{}, err
	}
	return c, nil
}
