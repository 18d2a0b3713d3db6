package flickr

import (
	"encoding/xml"
	"fmt"
)

// Rsp is the envelope every legacy Flickr API reply is wrapped in:
//
//	<rsp stat="ok">...</rsp>
//	<rsp stat="fail"><err code="5" msg="..."/></rsp>
type Rsp struct {
	XMLName xml.Name `xml:"rsp"`
	Stat    string   `xml:"stat,attr"`
	Err     *Err     `xml:"err"`
	PhotoID string   `xml:"photoid"`
	Frob    string   `xml:"frob"`
	Auth    *Auth    `xml:"auth"`
}

// Err is the service-provided error detail of a failed reply.
type Err struct {
	Code int    `xml:"code,attr"`
	Msg  string `xml:"msg,attr"`
}

// Auth is the payload of flickr.auth.getToken and flickr.auth.checkToken.
type Auth struct {
	Token string `xml:"token"`
	Perms string `xml:"perms"`
	User  User   `xml:"user"`
}

// User identifies the authorized account.
type User struct {
	NSID     string `xml:"nsid,attr"`
	Username string `xml:"username,attr"`
}

// OK reports whether the reply denotes success.
func (r *Rsp) OK() bool {
	return r.Stat == "ok"
}

// ServiceError converts a failed reply into an error value.
func (r *Rsp) ServiceError() error {
	if r.Err == nil {
		return fmt.Errorf("flickr reported stat %q without error detail", r.Stat)
	}

	return fmt.Errorf("flickr error %d: %s", r.Err.Code, r.Err.Msg)
}

// ParseRsp parses a raw reply body into an Rsp envelope.
func ParseRsp(data []byte) (*Rsp, error) {
	var rsp Rsp
	if err := xml.Unmarshal(data, &rsp); err != nil {
		return nil, fmt.Errorf("parsing flickr response: %w", err)
	}

	if rsp.Stat == "" {
		return nil, fmt.Errorf("flickr response has no stat attribute")
	}

	return &rsp, nil
}
