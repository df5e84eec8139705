package domain

import (
	"strconv"

	"github.com/rsclarke/goepp/internal/epp"
	"github.com/rsclarke/goepp/internal/xmldoc"
)

func decodeInfo(doc *xmldoc.Node) (*epp.DomainInfo, error) {
	inf := doc.Child("resData").Child("infData")
	if inf == nil {
		return nil, epp.MissingElement("infData")
	}
	name := inf.Child("name")
	if name == nil {
		return nil, epp.MissingElement("name")
	}

	info := &epp.DomainInfo{
		Name:       name.Text,
		ROID:       inf.ChildText("roid"),
		Statuses:   epp.DecodeStatuses(inf),
		Registrant: inf.ChildText("registrant"),
		Hosts:      textsOf(inf.ChildrenNamed("host")),
		ClientID:   inf.ChildText("clID"),
		CreatorID:  inf.ChildText("crID"),
		UpdaterID:  inf.ChildText("upID"),
		AuthInfo:   inf.Child("authInfo").ChildText("pw"),
	}
	for _, ct := range inf.ChildrenNamed("contact") {
		info.Contacts = append(info.Contacts, epp.DomainContact{Type: ct.AttrOr("type"), ID: ct.Text})
	}
	ns := inf.Child("ns")
	info.Nameservers = textsOf(ns.ChildrenNamed("hostObj"))
	for _, attr := range ns.ChildrenNamed("hostAttr") {
		info.Nameservers = append(info.Nameservers, attr.ChildText("hostName"))
	}

	var err error
	if info.Created, err = epp.TimeOf(inf, "crDate"); err != nil {
		return nil, err
	}
	if info.Updated, err = epp.TimeOf(inf, "upDate"); err != nil {
		return nil, err
	}
	if info.Expires, err = epp.TimeOf(inf, "exDate"); err != nil {
		return nil, err
	}
	if info.Transferred, err = epp.TimeOf(inf, "trDate"); err != nil {
		return nil, err
	}

	if err := decodeSecDNS(doc.Child("extension").Child("infData"), info); err != nil {
		return nil, err
	}
	return info, nil
}

func decodeSecDNS(sec *xmldoc.Node, info *epp.DomainInfo) error {
	if sec == nil {
		return nil
	}
	if v := sec.ChildText("maxSigLife"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return epp.InvalidValue("maxSigLife", err)
		}
		info.MaxSigLife = n
	}
	for _, n := range sec.ChildrenNamed("dsData") {
		ds, err := decodeDS(n)
		if err != nil {
			return err
		}
		info.DSData = append(info.DSData, ds)
	}
	for _, n := range sec.ChildrenNamed("keyData") {
		k, err := decodeKeyData(n)
		if err != nil {
			return err
		}
		info.KeyData = append(info.KeyData, *k)
	}
	return nil
}

func decodeDS(n *xmldoc.Node) (epp.DSRecord, error) {
	var (
		ds  epp.DSRecord
		err error
	)
	if ds.KeyTag, err = uintOf[uint16](n, "keyTag"); err != nil {
		return ds, err
	}
	if ds.Algorithm, err = uintOf[uint8](n, "alg"); err != nil {
		return ds, err
	}
	if ds.DigestType, err = uintOf[uint8](n, "digestType"); err != nil {
		return ds, err
	}
	ds.Digest = n.ChildText("digest")
	if k := n.Child("keyData"); k != nil {
		if ds.KeyData, err = decodeKeyData(k); err != nil {
			return ds, err
		}
	}
	return ds, nil
}

func decodeKeyData(n *xmldoc.Node) (*epp.KeyData, error) {
	var (
		k   epp.KeyData
		err error
	)
	if k.Flags, err = uintOf[uint16](n, "flags"); err != nil {
		return nil, err
	}
	if k.Protocol, err = uintOf[uint8](n, "protocol"); err != nil {
		return nil, err
	}
	if k.Algorithm, err = uintOf[uint8](n, "alg"); err != nil {
		return nil, err
	}
	k.PublicKey = n.ChildText("pubKey")
	return &k, nil
}

func uintOf[T uint8 | uint16](n *xmldoc.Node, element string) (T, error) {
	c := n.Child(element)
	if c == nil {
		return 0, epp.MissingElement(element)
	}
	var zero T
	bits := 8
	if _, ok := any(zero).(uint16); ok {
		bits = 16
	}
	v, err := strconv.ParseUint(c.Text, 10, bits)
	if err != nil {
		return 0, epp.InvalidValue(element, err)
	}
	return T(v), nil
}

func textsOf(nodes []*xmldoc.Node) []string {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Text)
	}
	return out
}
