/*
Package link implements the action-link token: a compact, checksum-protected
reference to one (action, contact, custom uri) triple, embedded in URLs and
generated content.

# Wire Format

	a.<checksum>.<actionId>[.<contactId>][/<customUri>]

The checksum is CRC-32 (IEEE) over the little-endian action id, the little-endian
contact id (when present), the normalized custom uri (when present) and a fixed
16-byte salt. It detects casual tampering with the visible ids; it is not an
authentication mechanism and must not be changed, since issued links have to keep
decoding.
*/
package link
