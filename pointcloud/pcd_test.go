package pointcloud

import (
	"bytes"
	"strings"
	"testing"

	"go.viam.com/test"
)

func newTestCloud(t *testing.T) PointCloud {
	t.Helper()
	pc := New()
	test.That(t, pc.Set(NewVector(0.5, -1.25, 2), NewIntensityData(10)), test.ShouldBeNil)
	test.That(t, pc.Set(NewVector(-3, 0, 0.125), NewIntensityData(20)), test.ShouldBeNil)
	test.That(t, pc.Set(NewVector(7, 2, -1), NewIntensityData(30)), test.ShouldBeNil)
	return pc
}

func TestPCDRoundTripAscii(t *testing.T) {
	pc := newTestCloud(t)

	var buf bytes.Buffer
	test.That(t, ToPCD(pc, &buf, PCDAscii), test.ShouldBeNil)
	test.That(t, buf.String(), test.ShouldContainSubstring, "FIELDS x y z intensity")
	test.That(t, buf.String(), test.ShouldContainSubstring, "DATA ascii")

	got, err := ReadPCD(&buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.Size(), test.ShouldEqual, 3)

	d, found := got.At(0.5, -1.25, 2)
	test.That(t, found, test.ShouldBeTrue)
	test.That(t, d.Intensity(), test.ShouldEqual, 10)
}

func TestPCDRoundTripBinary(t *testing.T) {
	pc := newTestCloud(t)

	var buf bytes.Buffer
	test.That(t, ToPCD(pc, &buf, PCDBinary), test.ShouldBeNil)

	got, err := ReadPCD(&buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.Size(), test.ShouldEqual, 3)

	// All coordinates chosen representable in float32.
	d, found := got.At(-3, 0, 0.125)
	test.That(t, found, test.ShouldBeTrue)
	test.That(t, d.Intensity(), test.ShouldEqual, 20)
}

func TestPCDNoIntensity(t *testing.T) {
	pc := New()
	test.That(t, pc.Set(NewVector(1, 2, 3), nil), test.ShouldBeNil)

	var buf bytes.Buffer
	test.That(t, ToPCD(pc, &buf, PCDAscii), test.ShouldBeNil)
	test.That(t, buf.String(), test.ShouldContainSubstring, "FIELDS x y z\n")

	got, err := ReadPCD(&buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.Size(), test.ShouldEqual, 1)
	test.That(t, got.MetaData().HasIntensity, test.ShouldBeFalse)
}

func TestPCDBadHeader(t *testing.T) {
	_, err := ReadPCD(strings.NewReader("VERSION .7\nFIELDS x y q\n"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unsupported pcd fields")

	_, err = ReadPCD(strings.NewReader("VERSION 2\n"))
	test.That(t, err, test.ShouldNotBeNil)

	mismatch := "VERSION .7\nFIELDS x y z\nSIZE 4 4 4\nTYPE F F F\nCOUNT 1 1 1\n" +
		"WIDTH 2\nHEIGHT 1\nVIEWPOINT 0 0 0 1 0 0 0\nPOINTS 3\nDATA ascii\n"
	_, err = ReadPCD(strings.NewReader(mismatch))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "does not match WIDTH*HEIGHT")
}

func TestPCDComments(t *testing.T) {
	content := "# generated for a unit test\nVERSION .7\nFIELDS x y z\nSIZE 4 4 4\nTYPE F F F\nCOUNT 1 1 1\n" +
		"WIDTH 1\nHEIGHT 1\nVIEWPOINT 0 0 0 1 0 0 0\nPOINTS 1\nDATA ascii\n1 2 3\n"
	pc, err := ReadPCD(strings.NewReader(content))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, CloudContains(pc, 1, 2, 3), test.ShouldBeTrue)
}
