package storage

import (
	"encoding"

	"github.com/vmihailenco/msgpack/v5"
)

type Storeable interface {
	Key() []byte
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

// DBSession is a signed-in console session. The raw token is never stored.
type DBSession struct {
	TokenHash  string `msgpack:"tokenHash"`
	ProviderID string `msgpack:"providerId"`
	Username   string `msgpack:"username"`
	AvatarURL  string `msgpack:"avatarUrl"`
	CreatedAt  int64  `msgpack:"createdAt"`
	ExpiresAt  int64  `msgpack:"expiresAt"`
}

func (s *DBSession) Key() []byte {
	return []byte(s.TokenHash)
}

func (s *DBSession) MarshalBinary() (data []byte, err error) {
	type alias DBSession
	return msgpack.Marshal((*alias)(s))
}

func (s *DBSession) UnmarshalBinary(data []byte) error {
	type alias DBSession
	return msgpack.Unmarshal(data, (*alias)(s))
}
