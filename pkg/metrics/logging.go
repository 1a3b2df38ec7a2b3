package metrics

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"
)

// NewRelicLogFormatter wraps a logrus.Formatter, forwarding every entry and
// its fields to New Relic and decorating the output with linking metadata.
type NewRelicLogFormatter struct {
	app       *newrelic.Application
	formatter logrus.Formatter
}

func NewCustomNewRelicLogFormatter(app *newrelic.Application, formatter logrus.Formatter) NewRelicLogFormatter {
	return NewRelicLogFormatter{
		app:       app,
		formatter: formatter,
	}
}

func (f NewRelicLogFormatter) Format(e *logrus.Entry) ([]byte, error) {
	formatted, err := f.formatter.Format(e)
	if err != nil {
		return nil, err
	}

	logData := newrelic.LogData{
		Severity: e.Level.String(),
		Message:  summarizeEntry(e),
	}

	var txn *newrelic.Transaction
	if e.Context != nil {
		txn = newrelic.FromContext(e.Context)
	}

	var metadata newrelic.EnricherOption
	if txn != nil {
		txn.RecordLog(logData)
		metadata = newrelic.FromTxn(txn)
	} else {
		f.app.RecordLog(logData)
		metadata = newrelic.FromApp(f.app)
	}

	b := bytes.NewBuffer(bytes.TrimRight(formatted, "\n"))
	if err := newrelic.EnrichLog(b, metadata); err != nil {
		return nil, err
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

// summarizeEntry folds the entry's fields into the message, since log
// forwarding only carries the message text.
func summarizeEntry(e *logrus.Entry) string {
	if len(e.Data) == 0 {
		return e.Message
	}

	errString := "<nil>"
	fields := make(map[string]interface{}, len(e.Data))
	for k, v := range e.Data {
		if k != logrus.ErrorKey {
			fields[k] = v
			continue
		}
		if err, ok := v.(error); ok {
			errString = fmt.Sprintf("%q", err.Error())
		}
	}

	encoded, err := json.Marshal(fields)
	if err != nil {
		return e.Message
	}
	return fmt.Sprintf("message=%q, error=%s, data=%s", e.Message, errString, encoded)
}
