package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount возвращается при некорректной денежной сумме
var ErrInvalidAmount = errors.New("money: invalid amount")

// Amount денежная сумма в минорных единицах валюты (пайсы, копейки, центы)
type Amount int64

// Currency валюта и точность её минорной единицы
type Currency struct {
	Code     string
	Exponent int32
}

// INR валюта по умолчанию
var INR = Currency{Code: "INR", Exponent: 2}

// CurrencyFromCode возвращает валюту по ISO коду; для неизвестных кодов точность 2 знака
func CurrencyFromCode(code string) Currency {
	code = strings.ToUpper(strings.TrimSpace(code))
	switch code {
	case "", "INR":
		return INR
	case "JPY", "KRW":
		return Currency{Code: code, Exponent: 0}
	case "KWD", "BHD", "OMR":
		return Currency{Code: code, Exponent: 3}
	default:
		return Currency{Code: code, Exponent: 2}
	}
}

// Zero нулевая сумма
const Zero Amount = 0

// FromMajor переводит сумму в основных единицах (например, рублях) в минорные
func FromMajor(major decimal.Decimal, c Currency) Amount {
	return FromDecimal(major.Shift(c.Exponent))
}

// FromDecimal округляет значение в минорных единицах до целого (half away from zero)
func FromDecimal(minor decimal.Decimal) Amount {
	return Amount(minor.Round(0).IntPart())
}

// ParseMajor парсит строку вида "500.00" в минорные единицы
func ParseMajor(s string, c Currency) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromMajor(d, c), nil
}

// Decimal возвращает сумму в минорных единицах как decimal
func (a Amount) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(a))
}

// Major возвращает сумму в основных единицах
func (a Amount) Major(c Currency) decimal.Decimal {
	return a.Decimal().Shift(-c.Exponent)
}

// Format форматирует сумму для отображения: "1100.00 INR"
func (a Amount) Format(c Currency) string {
	return fmt.Sprintf("%s %s", a.Major(c).StringFixed(c.Exponent), c.Code)
}

// IsNegative сумма меньше нуля
func (a Amount) IsNegative() bool {
	return a < 0
}

// Min возвращает меньшую из сумм
func Min(a, b Amount) Amount {
	if a < b {
		return a
	}
	return b
}

// Max возвращает большую из сумм
func Max(a, b Amount) Amount {
	if a > b {
		return a
	}
	return b
}

// Sum суммирует список сумм
func Sum(amounts ...Amount) Amount {
	var total Amount
	for _, a := range amounts {
		total += a
	}
	return total
}

// Percent вычисляет value% от суммы с округлением до минорной единицы
func (a Amount) Percent(value decimal.Decimal) Amount {
	return FromDecimal(a.Decimal().Mul(value).Div(decimal.NewFromInt(100)))
}
