// Package dnssec converts between DNS presentation format and the DS and
// key records carried by the EPP secDNS extension.
package dnssec

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/miekg/dns"

	"github.com/rsclarke/goepp/internal/epp"
)

// digestLengths are the hex lengths of the DS digest types in use.
var digestLengths = map[uint8]int{
	dns.SHA1:   40,
	dns.SHA256: 64,
	dns.GOST94: 64,
	dns.SHA384: 96,
}

// ParseDS reads a DS record in presentation format. Both a full resource
// record ("example.nz. 3600 IN DS 12345 13 2 ...") and bare rdata
// ("12345 13 2 ...") are accepted.
func ParseDS(text string) (epp.DSRecord, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return epp.DSRecord{}, fmt.Errorf("%w: empty DS record", epp.ErrInvalidParameter)
	}
	if !hasType(text, "DS") {
		text = ". IN DS " + text
	}
	rr, err := dns.NewRR(text)
	if err != nil {
		return epp.DSRecord{}, fmt.Errorf("%w: %w", epp.ErrInvalidParameter, err)
	}
	ds, ok := rr.(*dns.DS)
	if !ok {
		return epp.DSRecord{}, fmt.Errorf("%w: %s is not a DS record", epp.ErrInvalidParameter, dns.TypeToString[rr.Header().Rrtype])
	}
	rec := epp.DSRecord{
		KeyTag:     ds.KeyTag,
		Algorithm:  ds.Algorithm,
		DigestType: ds.DigestType,
		Digest:     strings.ToUpper(ds.Digest),
	}
	return rec, Validate(rec)
}

// FromDNSKEY derives a DS record from a DNSKEY resource record. The owner
// name in text is part of the digest, so it must be the zone apex. The
// key itself is attached as KeyData.
func FromDNSKEY(text string, digestType uint8) (epp.DSRecord, error) {
	rr, err := dns.NewRR(strings.TrimSpace(text))
	if err != nil {
		return epp.DSRecord{}, fmt.Errorf("%w: %w", epp.ErrInvalidParameter, err)
	}
	key, ok := rr.(*dns.DNSKEY)
	if !ok {
		return epp.DSRecord{}, fmt.Errorf("%w: not a DNSKEY record", epp.ErrInvalidParameter)
	}
	if key.Flags&dns.SEP == 0 {
		return epp.DSRecord{}, fmt.Errorf("%w: key %d is not a key signing key", epp.ErrInvalidParameter, key.KeyTag())
	}
	ds := key.ToDS(digestType)
	if ds == nil {
		return epp.DSRecord{}, fmt.Errorf("%w: cannot compute digest type %d", epp.ErrInvalidParameter, digestType)
	}
	rec := epp.DSRecord{
		KeyTag:     ds.KeyTag,
		Algorithm:  ds.Algorithm,
		DigestType: ds.DigestType,
		Digest:     strings.ToUpper(ds.Digest),
		KeyData: &epp.KeyData{
			Flags:     key.Flags,
			Protocol:  key.Protocol,
			Algorithm: key.Algorithm,
			PublicKey: key.PublicKey,
		},
	}
	return rec, Validate(rec)
}

// Validate checks that a DS record names a known algorithm and digest type
// and that the digest has the right length.
func Validate(ds epp.DSRecord) error {
	if _, ok := dns.AlgorithmToString[ds.Algorithm]; !ok {
		return fmt.Errorf("%w: unknown DNSSEC algorithm %d", epp.ErrInvalidParameter, ds.Algorithm)
	}
	want, ok := digestLengths[ds.DigestType]
	if !ok {
		return fmt.Errorf("%w: unknown digest type %d", epp.ErrInvalidParameter, ds.DigestType)
	}
	if len(ds.Digest) != want {
		return fmt.Errorf("%w: %s digest must be %d hex characters, got %d",
			epp.ErrInvalidParameter, DigestName(ds.DigestType), want, len(ds.Digest))
	}
	if _, err := hex.DecodeString(ds.Digest); err != nil {
		return fmt.Errorf("%w: digest is not hex: %w", epp.ErrInvalidParameter, err)
	}
	if k := ds.KeyData; k != nil {
		if k.Protocol != 3 {
			return fmt.Errorf("%w: key protocol must be 3", epp.ErrInvalidParameter)
		}
		if _, ok := dns.AlgorithmToString[k.Algorithm]; !ok {
			return fmt.Errorf("%w: unknown key algorithm %d", epp.ErrInvalidParameter, k.Algorithm)
		}
		if _, err := base64.StdEncoding.DecodeString(k.PublicKey); err != nil || k.PublicKey == "" {
			return fmt.Errorf("%w: public key is not base64", epp.ErrInvalidParameter)
		}
	}
	return nil
}

// ToRR renders ds as a DS resource record owned by zone.
func ToRR(zone string, ds epp.DSRecord) *dns.DS {
	return &dns.DS{
		Hdr: dns.RR_Header{
			Name:   dns.Fqdn(zone),
			Rrtype: dns.TypeDS,
			Class:  dns.ClassINET,
		},
		KeyTag:     ds.KeyTag,
		Algorithm:  ds.Algorithm,
		DigestType: ds.DigestType,
		Digest:     ds.Digest,
	}
}

// AlgorithmName returns the mnemonic of a DNSSEC algorithm number.
func AlgorithmName(alg uint8) string {
	if s, ok := dns.AlgorithmToString[alg]; ok {
		return s
	}
	return strconv.Itoa(int(alg))
}

// DigestName returns the mnemonic of a DS digest type.
func DigestName(t uint8) string {
	if s, ok := dns.HashToString[t]; ok {
		return s
	}
	return strconv.Itoa(int(t))
}

func hasType(text, typ string) bool {
	for _, f := range strings.Fields(text) {
		if strings.EqualFold(f, typ) {
			return true
		}
	}
	return false
}
