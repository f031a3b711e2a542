package domain

// Notice is one entry in the checkout validation channel. Blocking notices
// prevent checkout from proceeding; informational notices do not.
type Notice struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Blocking bool   `json:"blocking"`
}

// NoticeList is an append-only collection of notices inspected before
// checkout is allowed to complete.
type NoticeList struct {
	notices []Notice
}

func (n *NoticeList) Add(notice Notice) {
	n.notices = append(n.notices, notice)
}

func (n *NoticeList) All() []Notice {
	return n.notices
}

// HasBlocking reports whether any blocking notice is attached.
func (n *NoticeList) HasBlocking() bool {
	for _, notice := range n.notices {
		if notice.Blocking {
			return true
		}
	}
	return false
}
