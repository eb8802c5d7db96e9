package model

// InotifyEventHeaderSize is sizeof(struct inotify_event) without the name.
const InotifyEventHeaderSize = 16

// InotifyEventHeader 对应 C 结构体 inotify_event 的头部
// 后面紧跟 Len 字节的文件名 (以 \0 填充)
type InotifyEventHeader struct {
	Wd     int32
	Mask   uint32
	Cookie uint32
	Len    uint32

	// name follows here
}

// struct inotify_event {
//     int      wd;       /* Watch descriptor */
//     uint32_t mask;     /* Mask describing event */
//     uint32_t cookie;   /* Unique cookie associating related events */
//     uint32_t len;      /* Size of name field */
//     char     name[];   /* Optional null-terminated name */
// };
