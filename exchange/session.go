package exchange

// Session represents the exchange session a timestamp falls in.
type Session int

const (
	Closed Session = iota
	PreMarketSession
	RegularSession
	PostMarketSession
	ExchangeOpenSession
)

// String stringifies the provided session.
func (s Session) String() string {
	switch s {
	case Closed:
		return "closed"
	case PreMarketSession:
		return "pre market usa"
	case RegularSession:
		return "open usa"
	case PostMarketSession:
		return "post market usa"
	case ExchangeOpenSession:
		return "exchange open"
	default:
		return "unknown"
	}
}
