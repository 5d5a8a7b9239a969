// # csvstream: a streaming delimited-text reader and writer for Go
//
// csvstream tokenizes delimiter-separated, optionally quoted text one record at a time without
// loading the input into memory, and serializes fields back into correctly escaped text. It is
// built for data exchange with systems that use the classic "CSV reader" format knobs rather than
// strict RFC 4180.
//
// # Features
//
//   - Pull-model Reader: ReadRecord advances one record; fields are read by index, by header
//     name, or materialised as a []string with Values.
//   - Per-field qualified flag, so a quoted empty field ("") is distinguishable from a missing one.
//   - Two escape disciplines: doubled quotes ("") and backslash escapes (\" \n \t \x41 é ...).
//   - Custom record terminator, comment lines, whitespace trimming, optional empty-record skipping.
//   - Safety limits on field length and fields per record, reported as ErrResourceExhausted.
//   - Writer with the matching quoting and escaping rules, including space-preserving fields.
//
// # Getting Started
//
//	r, err := csvstream.NewReader(src, csvstream.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer r.Close()
//	for {
//		ok, err := r.ReadRecord()
//		if err != nil {
//			return err
//		}
//		if !ok {
//			break
//		}
//		fmt.Println(r.Field(0), r.IsQualified(0))
//	}
//
// Reader and Writer are not safe for concurrent use.
package csvstream
