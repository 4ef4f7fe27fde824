package client

import (
	"context"
	"encoding/binary"

	"github.com/iamruinous/meshcore-go/pkg/meshcore"
)

// EnumerateContacts drives the contact-enumeration state machine
// (spec.md §4.6): Idle -> Requesting -> Streaming -> Done. lastMod is
// the cursor from a previous call (0 for a full resync); the returned
// cursor should be persisted and passed to the next call.
//
// It tolerates both device behaviours the state machine names:
// CONTACTS_START followed by a CONTACT stream, or a direct CONTACT
// reply with no start marker. Frames that are neither a contact nor a
// terminator are not part of this operation; they are handed back to
// event subscribers via Transport.Republish rather than silently
// dropped. With lastMod=0 a device may answer RESP_CODE_ERR /
// InvalidParameter instead of an empty stream (spec.md §8 S6); that is
// reported as an empty result, not an error.
func (c *Client) EnumerateContacts(ctx context.Context, lastMod uint32) (contacts []meshcore.Contact, newLastMod uint32, err error) {
	body := make([]byte, 4)
	binary.LittleEndian.PutUint32(body, lastMod)

	f, err := c.sendCommand(ctx, meshcore.CmdGetContacts, body)
	if err != nil {
		return nil, lastMod, err
	}

	newLastMod = lastMod
	switch f.Code() {
	case meshcore.RespCodeContactsStart:
		// no contact attached to the start marker itself.
	case meshcore.RespCodeContact:
		ct, decErr := meshcore.DecodeContact(f.Payload[1:])
		if decErr != nil {
			return nil, lastMod, decErr
		}
		contacts = append(contacts, ct)
	case meshcore.RespCodeEndOfContacts, meshcore.RespCodeNoMoreMessages:
		newLastMod = endOfContactsCursor(f)
		return contacts, newLastMod, nil
	case meshcore.RespCodeErr:
		// With no prior cursor the device reports InvalidParameter
		// rather than an empty stream; treat it as one (spec.md §8 S6).
		if errStatus(f) == meshcore.StatusInvalidParam {
			return nil, lastMod, nil
		}
		return nil, lastMod, checkErr(meshcore.CmdGetContacts, body, f)
	default:
		return nil, lastMod, unexpectedCode(meshcore.CmdGetContacts, f)
	}

	for {
		next, err := c.sendCommand(ctx, meshcore.CmdSyncNextMessage, nil)
		if err != nil {
			return contacts, newLastMod, err
		}

		switch next.Code() {
		case meshcore.RespCodeContact:
			ct, decErr := meshcore.DecodeContact(next.Payload[1:])
			if decErr != nil {
				return contacts, newLastMod, decErr
			}
			contacts = append(contacts, ct)
		case meshcore.RespCodeEndOfContacts, meshcore.RespCodeNoMoreMessages:
			newLastMod = endOfContactsCursor(next)
			return contacts, newLastMod, nil
		case meshcore.RespCodeErr:
			if errStatus(next) == meshcore.StatusInvalidParam {
				return contacts, newLastMod, nil
			}
			return contacts, newLastMod, checkErr(meshcore.CmdSyncNextMessage, nil, next)
		default:
			// Unrelated frame: does not advance enumeration state.
			c.t.Republish(next)
		}
	}
}

// errStatus extracts the status byte from a RESP_CODE_ERR frame's
// payload, or StatusUnknownError if the payload is too short to carry one.
func errStatus(f meshcore.Frame) meshcore.StatusCode {
	if len(f.Payload) < 2 {
		return meshcore.StatusUnknownError
	}
	return meshcore.StatusCode(f.Payload[1])
}

func endOfContactsCursor(f meshcore.Frame) uint32 {
	if f.Code() != meshcore.RespCodeEndOfContacts || len(f.Payload) < 5 {
		return 0
	}
	return binary.LittleEndian.Uint32(f.Payload[1:5])
}

// GetContactByKey issues CMD_GET_CONTACT_BY_KEY. key must be exactly 32
// bytes (spec.md §4.4).
func (c *Client) GetContactByKey(ctx context.Context, key [meshcore.PublicKeySize]byte) (meshcore.Contact, error) {
	f, err := c.sendCommand(ctx, meshcore.CmdGetContactByKey, key[:])
	if err != nil {
		return meshcore.Contact{}, err
	}
	return dispatch(meshcore.CmdGetContactByKey, key[:], f, meshcore.RespCodeContact, func(payload []byte) (meshcore.Contact, error) {
		return meshcore.DecodeContact(payload[1:])
	})
}

// AddOrUpdateContact issues CMD_ADD_UPDATE_CONTACT.
func (c *Client) AddOrUpdateContact(ctx context.Context, ct meshcore.Contact) error {
	body := meshcore.EncodeContact(ct)
	f, err := c.sendCommand(ctx, meshcore.CmdAddUpdateContact, body)
	if err != nil {
		return err
	}
	if f.Code() == meshcore.RespCodeErr {
		return checkErr(meshcore.CmdAddUpdateContact, body, f)
	}
	if f.Code() != meshcore.RespCodeOk {
		return unexpectedCode(meshcore.CmdAddUpdateContact, f)
	}
	return nil
}

// RemoveContact issues CMD_REMOVE_CONTACT. key must be exactly 32
// bytes.
func (c *Client) RemoveContact(ctx context.Context, key [meshcore.PublicKeySize]byte) error {
	f, err := c.sendCommand(ctx, meshcore.CmdRemoveContact, key[:])
	if err != nil {
		return err
	}
	if f.Code() == meshcore.RespCodeErr {
		return checkErr(meshcore.CmdRemoveContact, key[:], f)
	}
	if f.Code() != meshcore.RespCodeOk {
		return unexpectedCode(meshcore.CmdRemoveContact, f)
	}
	return nil
}

// AutoaddConfig is the decoded auto-add-contact configuration.
type AutoaddConfig struct {
	Enabled bool
	Flags   uint8
}

// GetAutoaddConfig issues CMD_GET_AUTOADD_CONFIG.
func (c *Client) GetAutoaddConfig(ctx context.Context) (AutoaddConfig, error) {
	f, err := c.sendCommand(ctx, meshcore.CmdGetAutoaddConfig, nil)
	if err != nil {
		return AutoaddConfig{}, err
	}
	return dispatch(meshcore.CmdGetAutoaddConfig, nil, f, meshcore.RespCodeAutoaddConfig, func(payload []byte) (AutoaddConfig, error) {
		if len(payload) < 2 {
			return AutoaddConfig{}, &meshcore.CodecError{RecordType: "AutoaddConfig", Length: len(payload), Reason: "short record"}
		}
		return AutoaddConfig{Enabled: payload[1] != 0, Flags: payload[1]}, nil
	})
}

// SetAutoaddConfig issues CMD_SET_AUTOADD_CONFIG.
func (c *Client) SetAutoaddConfig(ctx context.Context, cfg AutoaddConfig) error {
	body := []byte{cfg.Flags}
	f, err := c.sendCommand(ctx, meshcore.CmdSetAutoaddConfig, body)
	if err != nil {
		return err
	}
	if f.Code() == meshcore.RespCodeErr {
		return checkErr(meshcore.CmdSetAutoaddConfig, body, f)
	}
	if f.Code() != meshcore.RespCodeOk {
		return unexpectedCode(meshcore.CmdSetAutoaddConfig, f)
	}
	return nil
}

// EnableAutoadd is a convenience wrapper over SetAutoaddConfig.
func (c *Client) EnableAutoadd(ctx context.Context) error {
	return c.SetAutoaddConfig(ctx, AutoaddConfig{Enabled: true, Flags: 1})
}

// DisableAutoadd is a convenience wrapper over SetAutoaddConfig.
func (c *Client) DisableAutoadd(ctx context.Context) error {
	return c.SetAutoaddConfig(ctx, AutoaddConfig{Enabled: false, Flags: 0})
}
