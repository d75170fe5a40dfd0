package core

import (
	"encoding/json"
	"fmt"

	"github.com/prakoso/tvcast/internal/domain"
)

// envelope is the raw wire shape of every relay message: a type tag plus
// whichever payload fields that type uses.
type envelope struct {
	Type        string      `json:"type"`
	TVID        domain.TVID `json:"tvId,omitempty"`
	TVData      *domain.TV  `json:"tvData,omitempty"`
	TVs         []domain.TV `json:"tvs,omitempty"`
	Command     string      `json:"command,omitempty"`
	RoomName    string      `json:"roomName,omitempty"`
	ClientCount int         `json:"clientCount,omitempty"`
}

// EncodeEvent marshals an event into its wire envelope.
func EncodeEvent(ev Event) ([]byte, error) {
	env := envelope{Type: ev.Type()}
	switch e := ev.(type) {
	case TVAdded:
		tv := e.TV
		env.TVData = &tv
	case ImageUpdated:
		tv := e.TV
		env.TVID = e.TVID
		env.TVData = &tv
	case YoutubeLinkUpdated:
		tv := e.TV
		env.TVID = e.TVID
		env.TVData = &tv
	case TVDeleted:
		env.TVID = e.TVID
	case TVListSnapshot:
		env.TVs = e.TVs
		if env.TVs == nil {
			env.TVs = []domain.TV{}
		}
	case ZoomCommandEvent:
		env.Command = string(e.Command)
	case RoomJoined:
		env.TVID = e.TVID
		env.RoomName = e.RoomName
	case ZoomCommandSent:
		env.TVID = e.TVID
		env.Command = string(e.Command)
		env.ClientCount = e.ClientCount
	default:
		return nil, fmt.Errorf("encode: unsupported event %q", ev.Type())
	}
	return json.Marshal(env)
}

// DecodeEvent unmarshals one relay message. Unknown or malformed messages
// return an error; the consumer logs and drops them, the stream survives.
func DecodeEvent(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	switch env.Type {
	case TypeTVAdded:
		if env.TVData == nil {
			return nil, fmt.Errorf("decode %s: missing tvData", env.Type)
		}
		return TVAdded{TV: *env.TVData}, nil
	case TypeImageUpdated:
		if env.TVData == nil {
			return nil, fmt.Errorf("decode %s: missing tvData", env.Type)
		}
		return ImageUpdated{TVID: env.TVID, TV: *env.TVData}, nil
	case TypeYoutubeLinkUpdated:
		if env.TVData == nil {
			return nil, fmt.Errorf("decode %s: missing tvData", env.Type)
		}
		return YoutubeLinkUpdated{TVID: env.TVID, TV: *env.TVData}, nil
	case TypeTVDeleted:
		return TVDeleted{TVID: env.TVID}, nil
	case TypeTVListUpdate:
		return TVListSnapshot{TVs: env.TVs}, nil
	case TypeZoomCommand:
		cmd, err := domain.ParseZoomCommand(env.Command)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return ZoomCommandEvent{Command: cmd}, nil
	case TypeJoinedTVRoom:
		return RoomJoined{TVID: env.TVID, RoomName: env.RoomName}, nil
	case TypeZoomCommandSent:
		cmd, err := domain.ParseZoomCommand(env.Command)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return ZoomCommandSent{TVID: env.TVID, Command: cmd, ClientCount: env.ClientCount}, nil
	default:
		return nil, fmt.Errorf("decode: unknown type %q", env.Type)
	}
}

// Announcement is a client -> relay room-membership message.
type Announcement struct {
	Type string      `json:"type"`
	TVID domain.TVID `json:"tvId"`
}

func EncodeJoin(id domain.TVID) ([]byte, error) {
	return json.Marshal(Announcement{Type: TypeJoinTVDisplay, TVID: id})
}

func EncodeLeave(id domain.TVID) ([]byte, error) {
	return json.Marshal(Announcement{Type: TypeLeaveTVDisplay, TVID: id})
}

// DecodeAnnouncement parses a client message on the relay side.
func DecodeAnnouncement(data []byte) (Announcement, error) {
	var a Announcement
	if err := json.Unmarshal(data, &a); err != nil {
		return Announcement{}, fmt.Errorf("decode announcement: %w", err)
	}
	if a.Type != TypeJoinTVDisplay && a.Type != TypeLeaveTVDisplay {
		return Announcement{}, fmt.Errorf("decode announcement: unknown type %q", a.Type)
	}
	return a, nil
}
