// Package typefile reads and writes C type graphs as JSON documents.
//
// A document maps names to type expressions:
//
//	{
//	  "types": {
//	    "node": {"kind": "struct", "tag": "node", "members": [
//	      {"name": "value", "type": "int"},
//	      {"name": "flags", "type": "unsigned int", "bits": 3},
//	      {"name": "next", "type": {"kind": "pointer", "elem": "@node"}}
//	    ]},
//	    "grid": {"kind": "array", "elem": "double", "len": 16}
//	  }
//	}
//
// An expression is a primitive name ("int", "unsigned char", "long double",
// "void *"), a reference "@name" to another entry, or an object whose kind is
// struct, union, array or pointer. Members without a name are anonymous when
// their type is a struct or union, and unnamed bitfields otherwise.
package typefile
