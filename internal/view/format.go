package view

import (
	"math/big"
	"strings"
	"time"

	"github.com/betbot/controlpanel/internal/domain"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Currency 两位小数、千分位分组：12345.6 -> $12,345.60，-1234.5 -> $-1,234.50。
// 全程走 decimal，不经过 float64。
func Currency(d decimal.Decimal) string {
	rounded := d.Round(2)
	s := rounded.Abs().StringFixed(2)
	dot := strings.IndexByte(s, '.')
	whole, _ := new(big.Int).SetString(s[:dot], 10)
	out := humanize.BigComma(whole) + s[dot:]
	if rounded.IsNegative() {
		return "$-" + out
	}
	return "$" + out
}

// Percent 两位小数加 %：-1.5 -> -1.50%。舍入后为零的不带负号。
func Percent(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2) + "%"
}

// Ratio 把小数比例转成百分比：0.0123 -> 1.23%
func Ratio(d decimal.Decimal) string {
	return Percent(d.Mul(hundred))
}

// Quantity 数量原样输出，不补零
func Quantity(d decimal.Decimal) string {
	return d.String()
}

// SignTone 按两位小数舍入后的符号着色，非负为绿，负为红，和显示文本一致
func SignTone(d decimal.Decimal) Tone {
	if d.Round(2).IsNegative() {
		return ToneNegative
	}
	return TonePositive
}

// TimeOfDay 成交时间只显示时分秒；解析失败时原样显示
func TimeOfDay(ts domain.Timestamp, loc *time.Location) string {
	if ts.IsZero() {
		if ts.Raw != "" {
			return ts.Raw
		}
		return "-"
	}
	return ts.In(loc).Format("15:04:05")
}

// Side 买卖方向大写
func Side(side string) string {
	return strings.ToUpper(strings.TrimSpace(side))
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
