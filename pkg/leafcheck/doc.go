// Package leafcheck classifies plant-leaf photos into disease classes and
// attaches a short description and treatment recommendation to the result.
//
// By default images are sent to a remote prediction endpoint:
//
//	lc, err := leafcheck.New(leafcheck.WithEndpoint("http://localhost:5000/predict"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer lc.Close()
//
//	d, _ := lc.DiagnoseFile(ctx, "leaf.jpg")
//	fmt.Println(d.Class, d.Score) // Apple___Black_rot 0.7
//
// WithLocalModel runs an ONNX model in-process instead. A Leafcheck is safe
// for concurrent use; create one and reuse it.
package leafcheck
