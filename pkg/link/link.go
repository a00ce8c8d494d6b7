package link

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"strconv"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// RoutePrefix precedes every token in a link path: a.<checksum>.<actionId>[.<contactId>][/<customUri>].
const RoutePrefix = "a."

// salt is appended to the checksum input. It is not a secret; changing it invalidates every issued link.
var salt = [16]byte{
	0x5a, 0x1f, 0xc3, 0x07, 0x9e, 0x44, 0xb2, 0x6d,
	0x31, 0xe8, 0x0b, 0x97, 0x2c, 0x75, 0xd0, 0x48,
}

// Link names one (action, contact, custom uri) triple.
// ContactID 0 means no contact. CustomURI is normalized by Encode.
type Link struct {
	ActionID  int32  `json:"action_id"`
	ContactID int32  `json:"contact_id,omitempty"`
	CustomURI string `json:"custom_uri,omitempty"`
}

// HasContact reports whether the link names a contact.
func (l Link) HasContact() bool {
	return l.ContactID != 0
}

// NormalizeURI trims whitespace and surrounding slashes from a custom uri fragment.
func NormalizeURI(uri string) string {
	return strings.Trim(strings.TrimSpace(uri), "/")
}

// Checksum computes the CRC-32 integrity code of the link fields.
// The custom uri must already be normalized.
func Checksum(actionID, contactID int32, customURI string) uint32 {
	h := crc32.NewIEEE()
	var buf [4]byte

	binary.LittleEndian.PutUint32(buf[:], uint32(actionID))
	h.Write(buf[:])
	if contactID != 0 {
		binary.LittleEndian.PutUint32(buf[:], uint32(contactID))
		h.Write(buf[:])
	}
	if customURI != "" {
		h.Write([]byte(customURI))
	}
	h.Write(salt[:])
	return h.Sum32()
}

// Encode produces the token for a link, without route prefix.
func Encode(l Link) string {
	uri := NormalizeURI(l.CustomURI)

	var sb strings.Builder
	sb.WriteString(strconv.FormatUint(uint64(Checksum(l.ActionID, l.ContactID, uri)), 10))
	sb.WriteByte('.')
	sb.WriteString(strconv.FormatInt(int64(l.ActionID), 10))
	if l.ContactID != 0 {
		sb.WriteByte('.')
		sb.WriteString(strconv.FormatInt(int64(l.ContactID), 10))
	}
	if uri != "" {
		sb.WriteByte('/')
		sb.WriteString(uri)
	}
	return sb.String()
}

// Decode parses a token produced by Encode and verifies its checksum.
// A non-empty customURI overrides the uri fragment carried by the token
// (routing layers that strip the path pass it separately).
// Every failure wraps domain.ErrInvalidLinkParameter.
func Decode(token string, customURI string) (Link, error) {
	head, tail, _ := strings.Cut(token, "/")
	if customURI == "" {
		customURI = tail
	}
	uri := NormalizeURI(customURI)

	parts := strings.SplitN(head, ".", 3)
	if len(parts) < 2 {
		return Link{}, fmt.Errorf("%w: missing action id in %q", domain.ErrInvalidLinkParameter, token)
	}

	checksum, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return Link{}, fmt.Errorf("%w: checksum: %v", domain.ErrInvalidLinkParameter, err)
	}
	actionID, err := strconv.ParseInt(parts[1], 10, 32)
	if err != nil {
		return Link{}, fmt.Errorf("%w: action id: %v", domain.ErrInvalidLinkParameter, err)
	}

	var contactID int64
	if len(parts) == 3 {
		contactID, err = strconv.ParseInt(parts[2], 10, 32)
		if err != nil {
			return Link{}, fmt.Errorf("%w: contact id: %v", domain.ErrInvalidLinkParameter, err)
		}
	}

	l := Link{ActionID: int32(actionID), ContactID: int32(contactID), CustomURI: uri}
	if uint32(checksum) != Checksum(l.ActionID, l.ContactID, l.CustomURI) {
		return Link{}, fmt.Errorf("%w: checksum mismatch", domain.ErrInvalidLinkParameter)
	}
	return l, nil
}
