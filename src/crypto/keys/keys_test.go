package keys

import (
	"io/ioutil"
	"os"
	"path"
	"reflect"
	"testing"

	"github.com/mosaicnetworks/sourcechain/src/crypto"
)

func TestSimpleKeyfile(t *testing.T) {
	os.Mkdir("test_data", os.ModeDir|0700)
	dir, err := ioutil.TempDir("test_data", "sourcechain")
	if err != nil {
		t.Fatalf("err: %v ", err)
	}
	defer os.RemoveAll(dir)

	simpleKeyfile := NewSimpleKeyfile(path.Join(dir, "priv_key"))

	// Try a read, should get nothing
	key, err := simpleKeyfile.ReadKey()
	if err == nil {
		t.Fatalf("ReadKey should generate an error")
	}
	if key != nil {
		t.Fatalf("key is not nil")
	}

	key, _ = GenerateECDSAKey()

	if err := simpleKeyfile.WriteKey(key); err != nil {
		t.Fatalf("err: %v", err)
	}

	nKey, err := simpleKeyfile.ReadKey()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if !reflect.DeepEqual(DumpPrivateKey(nKey), DumpPrivateKey(key)) {
		t.Fatalf("Keys do not match")
	}
	if PublicKeyHex(&nKey.PublicKey) != PublicKeyHex(&key.PublicKey) {
		t.Fatalf("Public keys do not match")
	}
}

func TestFilePermissions(t *testing.T) {
	os.Mkdir("test_data", os.ModeDir|0700)
	dir, err := ioutil.TempDir("test_data", "sourcechain")
	if err != nil {
		t.Fatalf("err: %v ", err)
	}
	defer os.RemoveAll(dir)

	key, _ := GenerateECDSAKey()
	rawKey := PrivateKeyHex(key)

	badKeyPath := path.Join(dir, "priv_key_bad")

	for _, fm := range []os.FileMode{0777, 0766, 0744, 0677, 0666, 0644, 0477, 0466, 0444} {
		os.Remove(badKeyPath)
		ioutil.WriteFile(badKeyPath, []byte(rawKey), fm)
		os.Chmod(badKeyPath, fm)

		if _, err := NewSimpleKeyfile(badKeyPath).ReadKey(); err == nil {
			t.Fatalf("%o || keyfile should return permissions error", fm)
		}
	}

	goodKeyPath := path.Join(dir, "priv_key_good")

	for _, fm := range []os.FileMode{0700, 0600, 0500, 0400} {
		os.Remove(goodKeyPath)
		ioutil.WriteFile(goodKeyPath, []byte(rawKey), fm)
		os.Chmod(goodKeyPath, fm)

		if _, err := NewSimpleKeyfile(goodKeyPath).ReadKey(); err != nil {
			t.Fatalf("%o || keyfile should not return error. Got %v", fm, err)
		}
	}
}

func TestSignatureEncoding(t *testing.T) {
	privKey, _ := GenerateECDSAKey()

	msgHashBytes := crypto.SHA256([]byte("J'aime mieux forger mon ame que la meubler"))

	r, s, _ := Sign(privKey, msgHashBytes)

	dr, ds, err := DecodeSignature(EncodeSignature(r, s))
	if err != nil {
		t.Fatal(err)
	}

	if r.Cmp(dr) != 0 || s.Cmp(ds) != 0 {
		t.Fatalf("Signature values differ")
	}

	if _, _, err := DecodeSignature("nope"); err == nil {
		t.Fatalf("malformed signature should not decode")
	}
}

func TestSignString(t *testing.T) {
	privKey, _ := GenerateECDSAKey()
	other, _ := GenerateECDSAKey()
	agent := PublicKeyHex(&privKey.PublicKey)
	data := crypto.SHA256([]byte("entry address"))

	sig, err := SignString(privKey, data)
	if err != nil {
		t.Fatal(err)
	}

	ok, err := VerifyString(agent, data, sig)
	if err != nil || !ok {
		t.Fatalf("signature should verify: %v", err)
	}

	ok, err = VerifyString(PublicKeyHex(&other.PublicKey), data, sig)
	if err != nil || ok {
		t.Fatalf("signature should not verify for another agent")
	}

	if _, err := ParsePublicKeyHex("0X00"); err == nil {
		t.Fatalf("invalid public key should not parse")
	}
}
