// Package recordio implements a binary format for storing and retrieving
// types.Record and types.KeyframeRecord values. Each entry starts with magic
// bytes identifying its shape, followed by length-prefixed fields.
//
// A keyframe record stores its rank behind a presence flag, so an unranked
// record reads back unranked rather than at rank zero.
//
// Basic usage:
//
//	record := types.Record{
//	    Date:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
//	    Name:  "cpu",
//	    Value: 42,
//	}
//
//	var buf bytes.Buffer
//	n, err := recordio.Write(&buf, record)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for record := range recordio.Seq(&buf) {
//	    fmt.Printf("Read record: %s\n", record.Name)
//	}
package recordio
