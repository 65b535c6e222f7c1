package sigchan

// Chan 非阻塞的信号 channel：只通知"有事发生"，不携带数据。
// 缓冲满时新的信号被合并，接收方醒来后应读取最新状态而不是依赖信号次数。
type Chan struct {
	c chan struct{}
}

// New 创建信号 channel，bufferSize 小于 1 时按 1 处理
func New(bufferSize int) *Chan {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Chan{
		c: make(chan struct{}, bufferSize),
	}
}

// Emit 发送信号（非阻塞）。返回 false 表示已有未处理的信号，本次被合并。
func (c *Chan) Emit() bool {
	select {
	case c.c <- struct{}{}:
		return true
	default:
		return false
	}
}

// C 返回内部的 channel（用于 select）
func (c *Chan) C() <-chan struct{} {
	return c.c
}

// Drain 丢弃所有未处理的信号，返回丢弃数量
func (c *Chan) Drain() int {
	n := 0
	for {
		select {
		case <-c.c:
			n++
		default:
			return n
		}
	}
}
