package model

// Thread 线程表的一行
type Thread struct {
	ID      int64   `db:"tid"`
	Created string  `db:"created"`
	Subject string  `db:"subject"`
	Deleted bool    `db:"deleted"`
	Hash    *string `db:"hash"`
}

// Post 帖子表的一行，ThreadID 不做外键校验
type Post struct {
	ID        int64   `db:"pid"`
	ThreadID  int64   `db:"tid"`
	Created   string  `db:"created"`
	Content   string  `db:"content"`
	Options   string  `db:"options"`
	IPAddress string  `db:"ipaddress"`
	Username  *string `db:"username"`
	TripRaw   *string `db:"tripraw"`
	Image     *string `db:"image"`
}

// Ban 封禁记录，Range 唯一
type Ban struct {
	Range   string  `db:"range"`
	Created string  `db:"created"`
	Note    *string `db:"note"`
}

// Kind 迁移单元
type Kind string

const (
	KindThreads Kind = "threads"
	KindPosts   Kind = "posts"
	KindBans    Kind = "bans"
)

// Kinds 按迁移顺序排列
var Kinds = []Kind{KindThreads, KindPosts, KindBans}
