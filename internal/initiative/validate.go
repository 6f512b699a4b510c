package initiative

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// FlexInt is an integer that accepts both JSON numbers and base-10 numeric
// strings. A value that cannot be read as an integer is recorded as invalid
// instead of failing the decode, so validation can report it against the
// field it arrived in.
type FlexInt struct {
	Value int
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}

	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(str))
		if err != nil {
			return nil
		}
		f.Value = n
		f.Valid = true
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return nil
	}
	n, err := num.Int64()
	if err != nil {
		return nil
	}
	f.Value = int(n)
	f.Valid = true
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f FlexInt) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// Int constructs a valid FlexInt from a plain integer.
func Int(n int) FlexInt {
	return FlexInt{Value: n, Valid: true}
}

// ProgressLogInput is the raw progress log payload as submitted by a caller.
// Year and quarter may arrive as numbers or numeric strings; missing text
// fields decode to the empty string.
type ProgressLogInput struct {
	FiscalYear         FlexInt `json:"fiscalYear"`
	FiscalQuarter      FlexInt `json:"fiscalQuarter"`
	ProgressStatus     string  `json:"progressStatus"`
	ProgressEvaluation string  `json:"progressEvaluation"`
	NextAction         string  `json:"nextAction"`
	NextActionDueDate  string  `json:"nextActionDueDate"`
}

// ProgressLogForm is the normalized form handed to validation and storage.
type ProgressLogForm struct {
	FiscalYear         FlexInt
	FiscalQuarter      FlexInt
	ProgressStatus     string
	ProgressEvaluation string
	NextAction         string
	NextActionDueDate  string
}

// NormalizeProgressLog converts a raw input into the normalized form.
func NormalizeProgressLog(in ProgressLogInput) ProgressLogForm {
	return ProgressLogForm{
		FiscalYear:         in.FiscalYear,
		FiscalQuarter:      in.FiscalQuarter,
		ProgressStatus:     in.ProgressStatus,
		ProgressEvaluation: in.ProgressEvaluation,
		NextAction:         in.NextAction,
		NextActionDueDate:  in.NextActionDueDate,
	}
}

// ValidateProgressLog checks a normalized form and returns every violation in
// one pass, keyed by field name. An empty map means the form passed. The
// function is pure: no store access, no side effects.
func ValidateProgressLog(form ProgressLogForm) map[string]string {
	errs := make(map[string]string)

	if !form.FiscalYear.Valid || form.FiscalYear.Value <= 0 {
		errs["fiscalYear"] = "年度を正しく入力してください。"
	}

	if !form.FiscalQuarter.Valid || form.FiscalQuarter.Value < 1 || form.FiscalQuarter.Value > 4 {
		errs["fiscalQuarter"] = "四半期は1〜4で指定してください。"
	}

	if strings.TrimSpace(form.ProgressStatus) == "" {
		errs["progressStatus"] = "進捗ステータスは必須です。"
	} else if utf8.RuneCountInString(form.ProgressStatus) > MaxProgressStatusLength {
		errs["progressStatus"] = "進捗ステータスは" + strconv.Itoa(MaxProgressStatusLength) + "文字以内で入力してください。"
	}

	if strings.TrimSpace(form.ProgressEvaluation) == "" {
		errs["progressEvaluation"] = "進捗評価・詳細は必須です。"
	} else if utf8.RuneCountInString(form.ProgressEvaluation) > MaxProgressEvaluationLength {
		errs["progressEvaluation"] = "進捗評価・詳細は" + strconv.Itoa(MaxProgressEvaluationLength) + "文字以内で入力してください。"
	}

	if strings.TrimSpace(form.NextAction) == "" {
		errs["nextAction"] = "次のアクションは必須です。"
	} else if utf8.RuneCountInString(form.NextAction) > MaxNextActionLength {
		errs["nextAction"] = "次のアクションは" + strconv.Itoa(MaxNextActionLength) + "文字以内で入力してください。"
	}

	if strings.TrimSpace(form.NextActionDueDate) == "" {
		errs["nextActionDueDate"] = "アクション期限は必須です。"
	} else if !isValidDateString(form.NextActionDueDate) {
		errs["nextActionDueDate"] = "アクション期限を正しい日付形式で入力してください。"
	}

	return errs
}

// isValidDateString reports whether s is a YYYY-MM-DD string naming a real
// calendar date.
func isValidDateString(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
